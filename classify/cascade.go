package classify

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/skillsenselab/voiceid/errors"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/processor"
)

// TranscribeFunc converts an audio snippet into text. Used to fill the
// transcript when the caller supplied none, and to transcribe snippets
// flagged as overlapping speech.
type TranscribeFunc func(ctx context.Context, audio []byte, mimeHint string) (string, error)

// CascadeConfig configures the full cascade.
type CascadeConfig struct {
	// ModelPath locates the trained classifier artifact. Empty means
	// no model: the cascade starts at the similarity stage.
	ModelPath string `mapstructure:"model_path"`

	// ModelThreshold is the minimum probability for the model stage
	// to accept.
	ModelThreshold float64 `mapstructure:"model_threshold"`

	Voice VoiceThresholds `mapstructure:"voice"`
	Text  TextConfig      `mapstructure:"text"`
}

// Cascade runs the stages in order and returns exactly one result per
// request. Stage failures degrade to the next stage, never propagate.
type Cascade struct {
	proc       *processor.Processor
	stages     []Stage
	text       *TextStage
	transcribe TranscribeFunc
	tracer     trace.Tracer
	log        *logger.Logger
}

// NewCascade builds the cascade. A missing or unreadable model artifact
// is logged and skipped rather than fatal; transcribe may be nil.
func NewCascade(cfg CascadeConfig, proc *processor.Processor, voice *VoiceStage, transcribe TranscribeFunc, log *logger.Logger) (*Cascade, error) {
	log = log.WithComponent("cascade")

	var model *Model
	if cfg.ModelPath != "" {
		var err error
		model, err = LoadModel(cfg.ModelPath)
		if err != nil {
			log.WithError(err).Warn("classifier model unavailable, cascade starts at voice stage", map[string]interface{}{
				"model_path": cfg.ModelPath,
			})
			model = nil
		}
	}

	text, err := NewTextStage(cfg.Text, log)
	if err != nil {
		return nil, err
	}

	return &Cascade{
		proc:       proc,
		stages:     []Stage{NewModelStage(model, cfg.ModelThreshold, log), voice},
		text:       text,
		transcribe: transcribe,
		tracer:     otel.Tracer("github.com/skillsenselab/voiceid/classify"),
		log:        log,
	}, nil
}

// Classify decides the speaker role for one snippet. It errors only on
// requests carrying neither audio nor transcript; everything else
// degrades down the cascade to a text decision.
func (c *Cascade) Classify(ctx context.Context, req Request) (*Result, error) {
	if len(req.Audio) == 0 && strings.TrimSpace(req.Transcript) == "" {
		return nil, apperrors.InvalidInput("request", "neither audio nor transcript provided")
	}

	req.requestID = uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "classify",
		trace.WithAttributes(attribute.String("request.id", req.requestID)))
	defer span.End()

	c.prepare(ctx, &req)

	result := c.run(ctx, &req)

	if result.Overlap && len(req.Audio) > 0 && c.transcribe != nil {
		if txt, err := c.transcribe(ctx, req.Audio, req.MIMEHint); err != nil {
			c.log.WithError(err).Warn("overlap transcription failed", map[string]interface{}{
				logger.FieldRequestID: req.requestID,
			})
		} else if txt != "" {
			result.OverlapTranscript = txt
		}
	}

	span.SetAttributes(
		attribute.String("decision.reason", string(result.DecisionReason)),
		attribute.Float64("decision.confidence", result.Confidence),
	)
	c.log.Info("classified", map[string]interface{}{
		logger.FieldRequestID: req.requestID,
		logger.FieldReason:    string(result.DecisionReason),
		"speaker":             string(result.SpeakerName),
		"confidence":          result.Confidence,
	})
	return result, nil
}

// prepare extracts the feature vector and, when possible, derives a
// missing transcript, so the stages see a fully populated request.
func (c *Cascade) prepare(ctx context.Context, req *Request) {
	if len(req.Audio) == 0 {
		req.fallbackReason = ReasonTextOnly
	} else {
		res, err := c.proc.ProcessOne(ctx, processor.Item{Audio: req.Audio, MIMEHint: req.MIMEHint})
		if err != nil {
			c.log.WithError(err).Warn("feature extraction failed, text fallback", map[string]interface{}{
				logger.FieldRequestID: req.requestID,
			})
			req.fallbackReason = ReasonTextNoFeatures
		} else {
			req.vector = res.Vector
			req.audioHash = res.AudioHash
		}
	}

	if strings.TrimSpace(req.Transcript) == "" && len(req.Audio) > 0 && c.transcribe != nil {
		txt, err := c.transcribe(ctx, req.Audio, req.MIMEHint)
		if err != nil {
			c.log.WithError(err).Warn("transcription failed", map[string]interface{}{
				logger.FieldRequestID: req.requestID,
			})
		} else {
			req.Transcript = txt
		}
	}
}

// run drives the stages. The text stage is terminal; when it decides
// because an earlier stage could not run, the marker reason explains
// why.
func (c *Cascade) run(ctx context.Context, req *Request) *Result {
	for _, stage := range c.stages {
		stageCtx, span := c.tracer.Start(ctx, "stage."+stage.Name())
		out := stage.Evaluate(stageCtx, req)
		span.End()
		if out.Accepted {
			return out.Result
		}
	}

	stageCtx, span := c.tracer.Start(ctx, "stage."+c.text.Name())
	out := c.text.Evaluate(stageCtx, req)
	span.End()

	result := out.Result
	if req.fallbackReason != "" {
		result.DecisionReason = req.fallbackReason
	}
	return result
}
