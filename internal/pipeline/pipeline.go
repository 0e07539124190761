package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/heat-emissions/internal/domain"
	"github.com/couchcryptid/heat-emissions/internal/observability"
)

// Source opens the raw dataset for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Notifier announces successful loads to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, summary domain.LoadSummary) error
}

// Pipeline fetches, parses and builds the dataset, and serves the most recent
// snapshot to readers. Snapshots are swapped atomically; readers never see a
// partially built dataset.
type Pipeline struct {
	source    Source
	notifier  Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
	refresh   time.Duration
	clock     clockwork.Clock
	current   atomic.Pointer[domain.Dataset]
	loaded    atomic.Bool
	attempted atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier announces every successful load through n.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithRefresh reloads the dataset every interval while Run is active.
// Zero disables refreshing.
func WithRefresh(interval time.Duration) Option {
	return func(p *Pipeline) { p.refresh = interval }
}

// WithClock overrides the clock driving the refresh ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline reading from src. Until the first load completes,
// Current returns an empty dataset that resolves intensities from baselines.
func New(src Source, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  src,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.current.Store(domain.EmptyDataset(nil))
	return p
}

// Current returns the latest dataset snapshot. It is never nil.
func (p *Pipeline) Current() *domain.Dataset {
	return p.current.Load()
}

// CheckReadiness returns nil once a load attempt has completed, whether or not
// it succeeded; a failed first load still serves baseline intensities.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.attempted.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Load runs one fetch-parse-build cycle and swaps in the result. On failure
// before any success an empty dataset carrying the error is served; on failure
// after a success the previous snapshot is kept with the error recorded.
func (p *Pipeline) Load(ctx context.Context) error {
	start := time.Now()
	defer p.attempted.Store(true)

	ds, err := p.fetch(ctx)
	if err != nil {
		p.metrics.DatasetLoads.WithLabelValues("error").Inc()
		p.logger.Error("dataset load failed", "source", describe(p.source), "error", err)
		p.recordFailure(err)
		return err
	}

	p.current.Store(ds)
	p.loaded.Store(true)

	took := time.Since(start)
	p.metrics.DatasetLoads.WithLabelValues("success").Inc()
	p.metrics.DatasetLoadDuration.Observe(took.Seconds())
	p.metrics.RowsParsed.Set(float64(ds.Rows))
	p.metrics.RowsSkipped.Set(float64(ds.Skipped))
	p.metrics.CountriesLoaded.Set(float64(len(ds.History.Countries)))

	summary := ds.Summary(describe(p.source), took)
	p.logger.Info("dataset loaded",
		"rows", summary.Rows,
		"skipped", summary.Skipped,
		"countries", summary.Countries,
		"mix_countries", summary.MixCovered,
		"duration", took,
	)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, summary); err != nil {
			p.logger.Warn("load notification failed", "error", err)
		}
	}
	return nil
}

// Run loads the dataset and, when a refresh interval is configured, reloads
// it on every tick until the context is cancelled. Load failures are logged
// and do not stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh", p.refresh)
	_ = p.Load(ctx)

	if p.refresh <= 0 {
		return nil
	}

	ticker := p.clock.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			_ = p.Load(ctx)
		}
	}
}

func (p *Pipeline) fetch(ctx context.Context) (*domain.Dataset, error) {
	rc, err := p.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	res, err := domain.ParseDataset(rc)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return domain.BuildDataset(res), nil
}

func (p *Pipeline) recordFailure(err error) {
	if !p.loaded.Load() {
		p.current.Store(domain.EmptyDataset(err))
		return
	}
	prev := *p.current.Load()
	prev.LoadError = err.Error()
	p.current.Store(&prev)
}

func describe(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
