package processor

import (
	"context"
	"sync"

	"github.com/skillsenselab/voiceid/cache"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/stats"
)

// Config configures the batch worker pool.
type Config struct {
	// Workers is the fixed number of pool goroutines.
	Workers int `mapstructure:"workers"`

	// QueueSize is the task channel buffer.
	QueueSize int `mapstructure:"queue_size"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
}

// Item is one audio snippet to process.
type Item struct {
	Audio    []byte
	MIMEHint string
}

// Result is the processed form of an Item.
type Result struct {
	// AudioHash is the content hash of the raw audio bytes.
	AudioHash string

	// Vector is the extracted feature vector.
	Vector feature.Vector

	// Cached reports whether the vector came from the cache.
	Cached bool
}

type task struct {
	ctx   context.Context
	item  Item
	index int
	out   []*Result
	wg    *sync.WaitGroup
}

// Processor extracts feature vectors with a cache in front and a fixed
// worker pool behind ProcessBatch. Safe for concurrent use; Close stops
// the pool and must not race with in-flight batches.
type Processor struct {
	cfg       Config
	extractor *feature.Extractor
	cache     *cache.FeatureCache
	tracker   *stats.Tracker
	log       *logger.Logger

	tasks     chan task
	workersWG sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Processor and starts its worker pool. The tracker may
// be nil.
func New(cfg Config, extractor *feature.Extractor, featureCache *cache.FeatureCache, tracker *stats.Tracker, log *logger.Logger) *Processor {
	cfg.ApplyDefaults()
	p := &Processor{
		cfg:       cfg,
		extractor: extractor,
		cache:     featureCache,
		tracker:   tracker,
		log:       log.WithComponent("processor"),
		tasks:     make(chan task, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.workersWG.Add(1)
		go p.worker()
	}
	return p
}

func (p *Processor) worker() {
	defer p.workersWG.Done()
	for t := range p.tasks {
		res, err := p.ProcessOne(t.ctx, t.item)
		if err != nil {
			p.log.WithError(err).Warn("batch item failed", map[string]interface{}{
				"index": t.index,
			})
		} else {
			t.out[t.index] = res
		}
		t.wg.Done()
	}
}

// ProcessOne extracts the feature vector for a single snippet,
// consulting the cache first and populating it on a miss.
func (p *Processor) ProcessOne(ctx context.Context, item Item) (*Result, error) {
	hash := feature.HashAudio(item.Audio)

	if vec, ok := p.cache.Get(ctx, hash); ok {
		if p.tracker != nil {
			p.tracker.RecordCacheHit()
		}
		return &Result{AudioHash: hash, Vector: vec, Cached: true}, nil
	}
	if p.tracker != nil {
		p.tracker.RecordCacheMiss()
	}

	vec, err := p.extractor.Extract(ctx, item.Audio, item.MIMEHint)
	if err != nil {
		return nil, err
	}
	p.cache.Put(ctx, hash, vec, p.cache.TTL())

	return &Result{AudioHash: hash, Vector: vec}, nil
}

// ProcessBatch processes items concurrently over the worker pool and
// returns results in input order. An item that fails yields a nil slot;
// the rest of the batch is unaffected.
func (p *Processor) ProcessBatch(ctx context.Context, items []Item) []*Result {
	out := make([]*Result, len(items))
	if len(items) == 0 {
		return out
	}

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		p.tasks <- task{ctx: ctx, item: item, index: i, out: out, wg: &wg}
	}
	wg.Wait()
	return out
}

// Close stops the worker pool. Safe to call more than once; callers
// must not submit batches afterwards.
func (p *Processor) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
		p.workersWG.Wait()
	})
}
