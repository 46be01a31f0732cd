package feature

import (
	"context"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/skillsenselab/voiceid/codec"
	apperrors "github.com/skillsenselab/voiceid/errors"
	"github.com/skillsenselab/voiceid/logger"
)

// ExtractorConfig configures the acoustic feature extractor.
type ExtractorConfig struct {
	// TargetSampleRate is the rate all signals are resampled to.
	TargetSampleRate int `mapstructure:"target_sample_rate"`

	// NumCoefficients is the output vector dimensionality.
	NumCoefficients int `mapstructure:"num_coefficients"`

	// FFTSize is the analysis frame length in samples.
	FFTSize int `mapstructure:"fft_size"`

	// HopSize is the stride between analysis frames in samples.
	HopSize int `mapstructure:"hop_size"`

	// MelBands is the number of mel filterbank bands.
	MelBands int `mapstructure:"mel_bands"`

	// MinDuration is the shortest signal accepted for extraction.
	MinDuration time.Duration `mapstructure:"min_duration"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *ExtractorConfig) ApplyDefaults() {
	if c.TargetSampleRate <= 0 {
		c.TargetSampleRate = 16000
	}
	if c.NumCoefficients <= 0 {
		c.NumCoefficients = 13
	}
	if c.FFTSize <= 0 {
		c.FFTSize = 2048
	}
	if c.HopSize <= 0 {
		c.HopSize = 512
	}
	if c.MelBands <= 0 {
		c.MelBands = 26
	}
	if c.MinDuration <= 0 {
		c.MinDuration = 200 * time.Millisecond
	}
}

// Extractor converts raw audio bytes into a fixed-length feature vector.
// It is safe for concurrent use.
type Extractor struct {
	cfg        ExtractorConfig
	transcoder codec.Transcoder
	log        *logger.Logger
}

// NewExtractor creates an Extractor. The transcoder handles non-WAV
// containers; pass codec.Null{} to reject them outright.
func NewExtractor(cfg ExtractorConfig, transcoder codec.Transcoder, log *logger.Logger) *Extractor {
	cfg.ApplyDefaults()
	if transcoder == nil {
		transcoder = codec.Null{}
	}
	return &Extractor{
		cfg:        cfg,
		transcoder: transcoder,
		log:        log.WithComponent("extractor"),
	}
}

// Dim returns the fixed output dimensionality.
func (e *Extractor) Dim() int { return e.cfg.NumCoefficients }

// Extract converts audio bytes into a feature vector. Non-WAV containers
// are transcoded first; signals shorter than the configured minimum are
// rejected with an AUDIO_TOO_SHORT error.
func (e *Extractor) Extract(ctx context.Context, audio []byte, mimeHint string) (Vector, error) {
	if len(audio) == 0 {
		return nil, apperrors.InvalidInput("audio", "empty payload")
	}

	if !IsWAV(audio) {
		if !e.transcoder.Available() {
			return nil, apperrors.CodecUnavailable(nil)
		}
		converted, err := e.transcoder.Transcode(ctx, audio, mimeHint)
		if err != nil {
			return nil, apperrors.AudioDecodeFailed(err)
		}
		audio = converted
	}

	signal, rate, err := decodeWAV(audio)
	if err != nil {
		return nil, apperrors.AudioDecodeFailed(err)
	}

	duration := time.Duration(len(signal)) * time.Second / time.Duration(rate)
	if duration < e.cfg.MinDuration {
		return nil, apperrors.AudioTooShort(int(duration.Milliseconds()), int(e.cfg.MinDuration.Milliseconds()))
	}

	if rate != e.cfg.TargetSampleRate {
		signal, err = resample(signal, rate, e.cfg.TargetSampleRate)
		if err != nil {
			return nil, apperrors.AudioDecodeFailed(err)
		}
	}

	m := newMFCC(e.cfg.TargetSampleRate, e.cfg.FFTSize, e.cfg.HopSize, e.cfg.MelBands, e.cfg.NumCoefficients)
	vec := m.compute(signal)

	e.log.Debug("extracted features", map[string]interface{}{
		"samples": len(signal),
		"dim":     vec.Dim(),
	})
	return vec, nil
}

// resample converts a mono signal from srcRate to dstRate.
func resample(signal []float64, srcRate, dstRate int) ([]float64, error) {
	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, err
	}
	out, err := r.Process(signal)
	if err != nil {
		return nil, err
	}
	return out, nil
}
