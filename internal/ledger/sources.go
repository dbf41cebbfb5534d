package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/store"
)

// PhotoCollector surfaces photo evidence as routine work records: every
// captured photo is proof that a worker was on site doing the rounds.
type PhotoCollector struct {
	store store.Store
}

// NewPhotoCollector creates a collector over the photo evidence store.
func NewPhotoCollector(st store.Store) *PhotoCollector {
	return &PhotoCollector{store: st}
}

func (c *PhotoCollector) Source() model.WorkType { return model.WorkTypeRoutine }

func (c *PhotoCollector) ListItems(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, error) {
	photos, err := c.store.ListPhotosByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	var out []model.WorkRecord
	for _, p := range photos {
		at := p.CaptureTimestamp
		if at.Before(from) || !at.Before(to) {
			continue
		}
		rec, err := Normalize(c.Source(), model.WorkRecord{
			ID:                 p.ID,
			BuildingID:         p.BuildingID,
			WorkerID:           p.WorkerID,
			Title:              "Photo evidence",
			Status:             model.WorkStatusCompleted,
			CompletedAt:        &at,
			Location:           p.ResolvedSpace(),
			VerificationMethod: "photo",
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// InspectionCollector surfaces monthly inspections as work records. A
// checklist contributes once its walk-through has started; completion time
// is the inspection date.
type InspectionCollector struct {
	store store.Store
}

// NewInspectionCollector creates a collector over the inspection store.
func NewInspectionCollector(st store.Store) *InspectionCollector {
	return &InspectionCollector{store: st}
}

func (c *InspectionCollector) Source() model.WorkType { return model.WorkTypeInspection }

func (c *InspectionCollector) ListItems(ctx context.Context, buildingID string, from, to time.Time) ([]model.WorkRecord, error) {
	var out []model.WorkRecord
	for period := model.PeriodOf(from); !period.Start().After(to); period = period.Next() {
		checklist, err := c.store.GetInspection(ctx, buildingID, period)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if checklist.InspectionDate == nil {
			continue
		}
		at := *checklist.InspectionDate
		if at.Before(from) || !at.Before(to) {
			continue
		}

		done := 0
		for _, it := range checklist.Items {
			if it.Status != model.ItemPending {
				done++
			}
		}
		status := model.WorkStatusInProgress
		if checklist.Status == model.InspectionCompleted {
			status = model.WorkStatusCompleted
		}

		rec, err := Normalize(c.Source(), model.WorkRecord{
			ID:                 checklist.ID,
			BuildingID:         checklist.BuildingID,
			WorkerID:           checklist.InspectorID,
			WorkerName:         checklist.InspectorName,
			Title:              fmt.Sprintf("Monthly inspection %s", checklist.Period),
			Description:        fmt.Sprintf("%d/%d items done", done, len(checklist.Items)),
			Status:             status,
			CompletedAt:        &at,
			VerificationMethod: "checklist",
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
