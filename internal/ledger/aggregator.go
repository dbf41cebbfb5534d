package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sitewatch/fieldops/internal/metrics"
	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/resilience"
)

// SourceError records a collector that failed to contribute to a ledger.
// Aggregation is fail-open: failures become warnings, not fatal errors.
type SourceError struct {
	Source model.WorkType
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error { return e.Err }

// Config tunes the aggregator's fan-out behavior.
type Config struct {
	// SourceTimeout bounds each collector fetch. A timed-out source is a
	// failed source. Default: 5s.
	SourceTimeout time.Duration `yaml:"source_timeout" mapstructure:"source_timeout"`

	// SourceRate throttles fetches per collector, tokens per second.
	// Zero disables throttling.
	SourceRate float64 `yaml:"source_rate" mapstructure:"source_rate"`

	// Retry controls the transient-failure retry per collector fetch. A
	// zero value gets the collector defaults.
	Retry resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

const defaultSourceTimeout = 5 * time.Second

// Aggregator fans out to all registered collectors for a building and time
// window and merges their records into one time-sorted ledger.
type Aggregator struct {
	collectors []Collector
	limiters   map[model.WorkType]*rate.Limiter
	cfg        Config
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewAggregator creates an Aggregator over the given collectors.
func NewAggregator(cfg Config, collectors []Collector, m *metrics.Metrics) *Aggregator {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = defaultSourceTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	limiters := make(map[model.WorkType]*rate.Limiter, len(collectors))
	if cfg.SourceRate > 0 {
		for _, c := range collectors {
			limiters[c.Source()] = rate.NewLimiter(rate.Limit(cfg.SourceRate), 1)
		}
	}
	return &Aggregator{
		collectors: collectors,
		limiters:   limiters,
		cfg:        cfg,
		metrics:    m,
		log:        zap.L().With(zap.String("component", "ledger.aggregator")),
	}
}

// Aggregate fetches all sources concurrently and returns the merged ledger
// sorted by completion time descending, with ties broken by work type then
// id for stable output. A failed source contributes a warning instead of
// aborting the call; an empty ledger is a valid result.
func (a *Aggregator) Aggregate(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, []SourceError) {
	start := time.Now()
	results := make([][]model.WorkRecord, len(a.collectors))
	errs := make([]error, len(a.collectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range a.collectors {
		i, c := i, c
		g.Go(func() error {
			results[i], errs[i] = a.fetchSource(gctx, c, buildingID, from, to)
			return nil
		})
	}
	// Workers never return errors; per-source failures land in errs.
	_ = g.Wait()

	var warnings []SourceError
	seen := make(map[string]model.WorkType)
	merged := make([]model.WorkRecord, 0)

	for i, c := range a.collectors {
		if errs[i] != nil {
			warnings = append(warnings, SourceError{Source: c.Source(), Err: errs[i]})
			continue
		}
		for _, rec := range results[i] {
			if rec.CompletedAt == nil {
				continue
			}
			if prev, dup := seen[rec.ID]; dup {
				// Source-prefixed ids make this impossible by contract, so a
				// duplicate means a misbehaving collector. First record wins.
				warnings = append(warnings, SourceError{
					Source: c.Source(),
					Err:    fmt.Errorf("duplicate record id %s (already seen from %s)", rec.ID, prev),
				})
				continue
			}
			seen[rec.ID] = c.Source()
			merged = append(merged, rec)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := *merged[i].CompletedAt, *merged[j].CompletedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		if merged[i].WorkType != merged[j].WorkType {
			return merged[i].WorkType < merged[j].WorkType
		}
		return merged[i].ID < merged[j].ID
	})

	a.metrics.ObserveAggregateLatency(time.Since(start))
	a.log.Debug("aggregated ledger",
		zap.String("building_id", buildingID),
		zap.Int("records", len(merged)),
		zap.Int("warnings", len(warnings)),
	)
	return merged, warnings
}

func (a *Aggregator) fetchSource(ctx context.Context, c Collector, buildingID string, from, to time.Time) ([]model.WorkRecord, error) {
	source := c.Source()
	if lim := a.limiters[source]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			a.metrics.IncCollectorOutcome(string(source), "failed")
			return nil, err
		}
	}

	retry := a.cfg.Retry
	retry.OnRetry = func(attempt int, err error) {
		a.log.Warn("retrying collector fetch",
			zap.String("source", string(source)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	var items []model.WorkRecord
	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
		defer cancel()
		var err error
		items, err = c.ListItems(fetchCtx, buildingID, from, to)
		return err
	})
	if err != nil {
		result := "failed"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		a.metrics.IncCollectorOutcome(string(source), result)
		a.log.Warn("collector failed",
			zap.String("source", string(source)),
			zap.String("building_id", buildingID),
			zap.Error(err),
		)
		return nil, err
	}
	a.metrics.IncCollectorOutcome(string(source), "ok")
	return items, nil
}
