// Package voiceid classifies short speech snippets from bank
// consultations as employee or customer speech. It combines a trained
// classifier, voice-profile similarity, and a Korean text heuristic
// behind one Engine facade, with content-addressed feature caching in
// front of the audio pipeline.
package voiceid

import (
	"context"
	"time"

	"github.com/skillsenselab/voiceid/cache"
	"github.com/skillsenselab/voiceid/classify"
	"github.com/skillsenselab/voiceid/codec"
	"github.com/skillsenselab/voiceid/config"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/observability"
	"github.com/skillsenselab/voiceid/processor"
	"github.com/skillsenselab/voiceid/profile"
	"github.com/skillsenselab/voiceid/redis"
	"github.com/skillsenselab/voiceid/stats"
)

// Option customizes engine construction.
type Option func(*engineOptions)

type engineOptions struct {
	transcribe    classify.TranscribeFunc
	profileSource profile.Source
	transcoder    codec.Transcoder
}

// WithTranscriber attaches a speech-to-text collaborator. It fills
// missing transcripts and transcribes snippets flagged as overlap.
func WithTranscriber(fn classify.TranscribeFunc) Option {
	return func(o *engineOptions) { o.transcribe = fn }
}

// WithProfileSource overrides the configured profile source.
func WithProfileSource(src profile.Source) Option {
	return func(o *engineOptions) { o.profileSource = src }
}

// WithTranscoder overrides the ffmpeg transcoder, mainly for tests.
func WithTranscoder(t codec.Transcoder) Option {
	return func(o *engineOptions) { o.transcoder = t }
}

// Engine owns the full classification pipeline. All dependencies are
// wired at construction; the engine is safe for concurrent use.
type Engine struct {
	log         *logger.Logger
	redisClient *redis.Client
	simCache    *cache.SimilarityCache
	proc        *processor.Processor
	profiles    *profile.Store
	cascade     *classify.Cascade
	tracker     *stats.Tracker
	providers   *observability.Providers
}

// New builds an engine from configuration. Optional collaborators that
// are unavailable (external cache tier, profile endpoint, classifier
// model, ffmpeg) degrade with a warning instead of failing startup.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("engine")

	providers, err := observability.Init(ctx, cfg.Observability, log)
	if err != nil {
		return nil, err
	}

	tracker, err := stats.NewTracker(observability.Meter("voiceid"))
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		tier        cache.Tier
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("external cache tier unreachable at startup, will retry per request")
		}
		cancel()
		tier = cache.NewRedisTier(redisClient)
	}

	transcoder := o.transcoder
	if transcoder == nil {
		transcoder = codec.NewFFmpeg(cfg.FFmpeg, log)
	}
	extractor := feature.NewExtractor(cfg.Extractor, transcoder, log)
	featureCache := cache.NewFeatureCache(cfg.FeatureCache, tier, log)
	simCache := cache.NewSimilarityCache(cfg.SimilarityTTL)
	proc := processor.New(cfg.Processor, extractor, featureCache, tracker, log)

	source := o.profileSource
	if source == nil {
		if cfg.Profiles.Enabled {
			source = profile.NewRESTSource(cfg.Profiles.REST)
		} else {
			source = &profile.StaticSource{}
		}
	}
	store := profile.NewStore(source, log)
	if cfg.Profiles.Enabled || o.profileSource != nil {
		if _, err := store.Reload(ctx); err != nil {
			log.WithError(err).Warn("initial profile load failed, starting with an empty set")
		}
	}

	voice := classify.NewVoiceStage(store, simCache, cfg.Cascade.Voice, log)
	cascade, err := classify.NewCascade(cfg.Cascade, proc, voice, o.transcribe, log)
	if err != nil {
		proc.Close()
		return nil, err
	}

	return &Engine{
		log:         log,
		redisClient: redisClient,
		simCache:    simCache,
		proc:        proc,
		profiles:    store,
		cascade:     cascade,
		tracker:     tracker,
		providers:   providers,
	}, nil
}

// Classify runs the cascade on one snippet and records the request in
// the performance tracker.
func (e *Engine) Classify(ctx context.Context, req classify.Request) (*classify.Result, error) {
	start := time.Now()
	result, err := e.cascade.Classify(ctx, req)
	if err != nil {
		return nil, err
	}
	e.tracker.RecordRequest(time.Since(start))
	return result, nil
}

// ProcessAudio extracts (or recalls) the feature vector for a snippet
// without classifying it.
func (e *Engine) ProcessAudio(ctx context.Context, audio []byte, mimeHint string) (*processor.Result, error) {
	return e.proc.ProcessOne(ctx, processor.Item{Audio: audio, MIMEHint: mimeHint})
}

// ProcessBatch extracts feature vectors for many snippets over the
// worker pool. Failed items come back as nil slots in input order.
func (e *Engine) ProcessBatch(ctx context.Context, items []processor.Item) []*processor.Result {
	return e.proc.ProcessBatch(ctx, items)
}

// ReloadProfiles refreshes the enrolled profile set, returning the new
// active count.
func (e *Engine) ReloadProfiles(ctx context.Context) (int, error) {
	return e.profiles.Reload(ctx)
}

// ProfileCount returns the number of enrolled profiles.
func (e *Engine) ProfileCount() int {
	return e.profiles.Len()
}

// SweepSimilarityCache drops expired pairwise scores and returns how
// many were removed. Intended for a periodic maintenance tick.
func (e *Engine) SweepSimilarityCache() int {
	return e.simCache.Sweep()
}

// Stats returns a snapshot of the performance counters.
func (e *Engine) Stats() stats.Snapshot {
	return e.tracker.Snapshot()
}

// Close stops the worker pool and releases external connections.
func (e *Engine) Close() error {
	e.proc.Close()

	var firstErr error
	if e.redisClient != nil {
		if err := e.redisClient.Close(); err != nil {
			firstErr = err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.providers.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
