// Package ledger merges work records from independent source collectors
// into one chronological building-activity ledger.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/sitewatch/fieldops/internal/model"
)

// Collector is the uniform read contract every work-category source
// implements. The aggregator has no knowledge of a collector's storage.
type Collector interface {
	// Source identifies the work category this collector owns.
	Source() model.WorkType

	// ListItems returns the collector's records for a building whose
	// completion time falls within [from, to). Records must already be
	// normalized (see Normalize).
	ListItems(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, error)
}

// ListFunc adapts a plain function to the Collector interface.
type ListFunc func(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, error)

type funcCollector struct {
	source model.WorkType
	fn     ListFunc
}

// NewCollector wraps fn as a Collector for the given source category.
func NewCollector(source model.WorkType, fn ListFunc) Collector {
	return &funcCollector{source: source, fn: fn}
}

func (c *funcCollector) Source() model.WorkType { return c.source }

func (c *funcCollector) ListItems(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, error) {
	return c.fn(ctx, buildingID, from, to)
}

// Normalize stamps the source's work type on rec, prefixes its id with the
// source name when the raw id is unprefixed, and validates the result.
// Collector implementations call this at their ingestion boundary so every
// record entering the merge is well formed and globally unique.
func Normalize(source model.WorkType, rec model.WorkRecord) (model.WorkRecord, error) {
	rec.WorkType = source
	if !strings.HasPrefix(rec.ID, string(source)+":") {
		rec.ID = string(source) + ":" + rec.ID
	}
	if err := rec.Validate(); err != nil {
		return model.WorkRecord{}, err
	}
	return rec, nil
}
