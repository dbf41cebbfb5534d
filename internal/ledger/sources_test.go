package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/store"
)

func TestPhotoCollector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemory()

	capture := func(id string, at time.Time) *model.PhotoEvidence {
		return &model.PhotoEvidence{
			ID:               id,
			BuildingID:       "bld-1",
			WorkerID:         "w-1",
			ImageRef:         "img/" + id + ".jpg",
			CaptureTimestamp: at,
		}
	}
	require.NoError(t, st.CreatePhoto(ctx, capture("ph-in", time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, st.CreatePhoto(ctx, capture("ph-early", time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, st.CreatePhoto(ctx, capture("ph-late", time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC))))

	c := NewPhotoCollector(st)
	assert.Equal(t, model.WorkTypeRoutine, c.Source())

	recs, err := c.ListItems(ctx, "bld-1",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "routine:ph-in", recs[0].ID)
	assert.Equal(t, model.WorkStatusCompleted, recs[0].Status)
	assert.Equal(t, "photo", recs[0].VerificationMethod)
	assert.Equal(t, model.UnresolvedSpace, recs[0].Location)
	assert.True(t, recs[0].Verified())
}

func TestInspectionCollector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemory()

	inspected := time.Date(2026, 8, 14, 11, 0, 0, 0, time.UTC)
	checklist := &model.InspectionChecklist{
		ID:             "cl-aug",
		BuildingID:     "bld-1",
		Period:         model.Period{Year: 2026, Month: 8},
		InspectorID:    "insp-7",
		InspectorName:  "Kim Minjun",
		InspectionDate: &inspected,
		Status:         model.InspectionCompleted,
		Items: []model.ChecklistItem{
			{ID: "it-1", Category: "safety", Title: "Exits clear", Status: model.ItemPassed},
			{ID: "it-2", Category: "mechanical", Title: "Boiler dry", Status: model.ItemFailed},
		},
		NextInspectionDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.CreateInspection(ctx, checklist))

	// A scheduled-only month contributes nothing.
	require.NoError(t, st.CreateInspection(ctx, &model.InspectionChecklist{
		ID:         "cl-jul",
		BuildingID: "bld-1",
		Period:     model.Period{Year: 2026, Month: 7},
		Status:     model.InspectionScheduled,
		Items:      []model.ChecklistItem{{ID: "it-3", Category: "safety", Title: "Exits clear", Status: model.ItemPending}},
	}))

	c := NewInspectionCollector(st)
	assert.Equal(t, model.WorkTypeInspection, c.Source())

	recs, err := c.ListItems(ctx, "bld-1",
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "inspection:cl-aug", recs[0].ID)
	assert.Equal(t, model.WorkStatusCompleted, recs[0].Status)
	assert.Equal(t, "Monthly inspection 2026-08", recs[0].Title)
	assert.Equal(t, "2/2 items done", recs[0].Description)
	assert.Equal(t, "Kim Minjun", recs[0].WorkerName)
	require.NotNil(t, recs[0].CompletedAt)
	assert.True(t, recs[0].CompletedAt.Equal(inspected))
}

func TestInspectionCollector_WindowEdges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemory()

	// Inspection happened on the window's exclusive upper bound.
	at := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateInspection(ctx, &model.InspectionChecklist{
		ID:             "cl-sep",
		BuildingID:     "bld-1",
		Period:         model.Period{Year: 2026, Month: 9},
		InspectionDate: &at,
		Status:         model.InspectionInProgress,
		Items:          []model.ChecklistItem{{ID: "it-1", Category: "safety", Title: "Exits clear", Status: model.ItemPassed}},
	}))

	recs, err := NewInspectionCollector(st).ListItems(ctx, "bld-1",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), at)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
