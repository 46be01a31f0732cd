package codec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/voiceid/logger"
)

// Transcoder converts an audio container into a mono PCM WAV payload at
// the requested sample rate.
type Transcoder interface {
	// Available reports whether the transcoder can be used at all.
	Available() bool
	// Transcode converts audio (optionally hinted by its MIME type) into
	// 16-bit PCM WAV bytes.
	Transcode(ctx context.Context, audio []byte, mimeHint string) ([]byte, error)
}

// FFmpegConfig configures the ffmpeg-backed transcoder.
type FFmpegConfig struct {
	// Binary is the ffmpeg executable name or path.
	Binary string `mapstructure:"binary"`

	// SampleRate is the output sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate"`

	// Timeout bounds a single transcode invocation.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *FFmpegConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// FFmpeg shells out to ffmpeg over stdin/stdout pipes. No temp files.
type FFmpeg struct {
	cfg FFmpegConfig
	log *logger.Logger

	path string
}

// NewFFmpeg creates the ffmpeg transcoder, resolving the binary once.
func NewFFmpeg(cfg FFmpegConfig, log *logger.Logger) *FFmpeg {
	cfg.ApplyDefaults()
	f := &FFmpeg{cfg: cfg, log: log.WithComponent("codec")}
	if path, err := exec.LookPath(cfg.Binary); err == nil {
		f.path = path
	} else {
		f.log.Warn("transcoder binary not found, non-WAV input will be rejected",
			map[string]interface{}{"binary": cfg.Binary})
	}
	return f
}

// Available reports whether the ffmpeg binary was resolved.
func (f *FFmpeg) Available() bool { return f.path != "" }

// Transcode converts audio to 16-bit mono PCM WAV at the configured rate.
func (f *FFmpeg) Transcode(ctx context.Context, audio []byte, mimeHint string) ([]byte, error) {
	if !f.Available() {
		return nil, fmt.Errorf("transcoder binary %q not available", f.cfg.Binary)
	}

	runCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error"}
	if fmtName := containerFormat(mimeHint); fmtName != "" {
		args = append(args, "-f", fmtName)
	}
	args = append(args,
		"-i", "pipe:0",
		"-ar", strconv.Itoa(f.cfg.SampleRate),
		"-ac", "1",
		"-f", "wav",
		"pipe:1",
	)

	cmd := exec.CommandContext(runCtx, f.path, args...)
	cmd.Stdin = bytes.NewReader(audio)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("transcode timed out after %s", f.cfg.Timeout)
		}
		return nil, fmt.Errorf("transcode failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	f.log.Debug("transcoded audio", map[string]interface{}{
		"in_bytes":  len(audio),
		"out_bytes": stdout.Len(),
		"duration":  time.Since(start).String(),
	})
	return stdout.Bytes(), nil
}

// containerFormat maps a MIME hint to an ffmpeg demuxer name. Empty means
// let ffmpeg probe the stream itself.
func containerFormat(mime string) string {
	switch {
	case strings.Contains(mime, "webm"):
		return "webm"
	case strings.Contains(mime, "ogg"):
		return "ogg"
	case strings.Contains(mime, "mp3") || strings.Contains(mime, "mpeg"):
		return "mp3"
	default:
		return ""
	}
}

// Null is a Transcoder that reports itself unavailable. It stands in
// when transcoding is disabled by configuration.
type Null struct{}

// Available always returns false.
func (Null) Available() bool { return false }

// Transcode always fails.
func (Null) Transcode(context.Context, []byte, string) ([]byte, error) {
	return nil, fmt.Errorf("transcoding disabled")
}
