package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/risk"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
	"github.com/blueharbor/maritime-risk-engine/internal/service/ownercluster"
)

// Source is an upstream feed of candidates, owners, and detection events.
type Source interface {
	// FetchBatch returns up to limit records. An empty batch means the feed
	// is drained for now.
	FetchBatch(ctx context.Context, limit int) (*Batch, error)
}

// EventSink stores detection events for the scoring pipeline.
type EventSink interface {
	SaveEvent(ctx context.Context, event *risk.Event) error
}

// StaticSink stores vessel registry static data.
type StaticSink interface {
	UpsertStatic(ctx context.Context, data *vessel.StaticData) error
}

// PollerConfig tunes the ingest loop.
type PollerConfig struct {
	Interval  time.Duration `json:"interval"`
	BatchSize int           `json:"batch_size"`
	RateLimit float64       `json:"rate_limit"` // records per second
	Burst     int           `json:"burst"`
}

// Poller drains a feed on a fixed interval and applies each record through
// the resolution services. Record-level failures are logged and skipped so a
// single bad entry cannot wedge the feed.
type Poller struct {
	config    PollerConfig
	source    Source
	graph     identitygraph.Service
	owners    ownercluster.Service
	statics   StaticSink
	events    EventSink
	validator *Validator
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// PollResult summarizes one drained batch.
type PollResult struct {
	Statics    int
	Candidates int
	Owners     int
	Events     int
	Skipped    int
}

// NewPoller creates an ingest poller. Zero config fields get conservative
// defaults.
func NewPoller(config PollerConfig, source Source, graph identitygraph.Service, owners ownercluster.Service, statics StaticSink, events EventSink, logger *slog.Logger) *Poller {
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.RateLimit == 0 {
		config.RateLimit = 50
	}
	if config.Burst == 0 {
		config.Burst = int(config.RateLimit) * 2
	}

	return &Poller{
		config:    config,
		source:    source,
		graph:     graph,
		owners:    owners,
		statics:   statics,
		events:    events,
		validator: NewValidator(),
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		logger:    logger,
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		result, err := p.PollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("ingest poll failed", "error", err)
		} else if result.Statics+result.Candidates+result.Owners+result.Events+result.Skipped > 0 {
			p.logger.Info("ingest batch applied",
				"statics", result.Statics,
				"candidates", result.Candidates,
				"owners", result.Owners,
				"events", result.Events,
				"skipped", result.Skipped)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce fetches and applies a single batch.
func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	var result PollResult

	batch, err := p.source.FetchBatch(ctx, p.config.BatchSize)
	if err != nil {
		return result, err
	}
	if batch.Empty() {
		return result, nil
	}

	// Registry data lands before anything that references the vessel.
	for _, record := range batch.Statics {
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := p.validator.ValidateRecord(record); err != nil {
			p.skip(&result, "static", err)
			continue
		}
		data, err := record.Static()
		if err != nil {
			p.skip(&result, "static", err)
			continue
		}
		if err := p.statics.UpsertStatic(ctx, data); err != nil {
			p.skip(&result, "static", err)
			continue
		}
		result.Statics++
	}

	for _, record := range batch.Owners {
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := p.validator.ValidateRecord(record); err != nil {
			p.skip(&result, "owner", err)
			continue
		}
		if _, err := p.owners.UpsertOwner(ctx, record.Input()); err != nil {
			p.skip(&result, "owner", err)
			continue
		}
		result.Owners++
	}

	for _, record := range batch.Candidates {
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := p.validator.ValidateRecord(record); err != nil {
			p.skip(&result, "candidate", err)
			continue
		}
		if _, err := p.graph.AddCandidate(ctx, record.Input()); err != nil {
			p.skip(&result, "candidate", err)
			continue
		}
		result.Candidates++
	}

	for _, record := range batch.Events {
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := p.validator.ValidateRecord(record); err != nil {
			p.skip(&result, "event", err)
			continue
		}
		event, err := record.Event()
		if err != nil {
			p.skip(&result, "event", err)
			continue
		}
		if err := p.events.SaveEvent(ctx, event); err != nil {
			p.skip(&result, "event", err)
			continue
		}
		result.Events++
	}

	return result, nil
}

func (p *Poller) skip(result *PollResult, kind string, err error) {
	result.Skipped++
	p.logger.Warn("ingest record skipped", "kind", kind, "error", err)
}
