package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/fieldops/internal/model"
)

func testPhoto(id, buildingID string) *model.PhotoEvidence {
	return &model.PhotoEvidence{
		ID:               id,
		BuildingID:       buildingID,
		WorkerID:         "w-1",
		ImageRef:         "img/" + id + ".jpg",
		CaptureTimestamp: time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC),
		GPS:              model.Coordinate{Latitude: 37.5665, Longitude: 126.9780, Accuracy: 8},
		Tags:             []string{"boiler"},
	}
}

func testChecklist(buildingID string, period model.Period) *model.InspectionChecklist {
	return &model.InspectionChecklist{
		ID:         "insp-" + buildingID + "-" + period.String(),
		BuildingID: buildingID,
		Period:     period,
		Status:     model.InspectionScheduled,
		Items: []model.ChecklistItem{
			{ID: "it-1", Category: "safety", Title: "Fire extinguishers charged", Status: model.ItemPending},
			{ID: "it-2", Category: "electrical", Title: "Panel room clear", Status: model.ItemPending},
		},
		NextInspectionDate: period.Next().Start(),
	}
}

func TestMemoryStore_PhotoLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	p := testPhoto("ph-1", "bld-1")
	require.NoError(t, s.CreatePhoto(ctx, p))
	assert.EqualValues(t, 1, p.Version)

	assert.ErrorIs(t, s.CreatePhoto(ctx, testPhoto("ph-1", "bld-1")), ErrAlreadyExists)

	got, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, "bld-1", got.BuildingID)

	// Mutating the returned copy must not touch the stored record.
	got.Tags[0] = "mangled"
	again, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"boiler"}, again.Tags)

	got.SmartLocation = &model.SmartLocation{DetectedSpaceID: "sp-1", Confidence: 90}
	got.Tags = []string{"boiler"}
	require.NoError(t, s.UpdatePhoto(ctx, got))
	assert.EqualValues(t, 2, got.Version)

	_, err = s.GetPhoto(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PhotoStaleWriteConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	p := testPhoto("ph-1", "bld-1")
	require.NoError(t, s.CreatePhoto(ctx, p))

	a, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)
	b, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)

	a.SmartLocation = &model.SmartLocation{DetectedSpaceID: "sp-1", Confidence: 80}
	require.NoError(t, s.UpdatePhoto(ctx, a))

	b.SmartLocation = &model.SmartLocation{DetectedSpaceID: "sp-2", Confidence: 60}
	assert.ErrorIs(t, s.UpdatePhoto(ctx, b), ErrConflict)
}

func TestMemoryStore_InspectionSingleton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()
	period := model.Period{Year: 2026, Month: 8}

	c := testChecklist("bld-1", period)
	require.NoError(t, s.CreateInspection(ctx, c))

	dup := testChecklist("bld-1", period)
	dup.ID = "insp-other"
	assert.ErrorIs(t, s.CreateInspection(ctx, dup), ErrAlreadyExists)

	got, err := s.GetInspection(ctx, "bld-1", period)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Len(t, got.Items, 2)

	byID, err := s.GetInspectionByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, byID.ID)

	_, err = s.GetInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 9})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InspectionVersionedUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()
	period := model.Period{Year: 2026, Month: 8}

	require.NoError(t, s.CreateInspection(ctx, testChecklist("bld-1", period)))

	a, err := s.GetInspection(ctx, "bld-1", period)
	require.NoError(t, err)
	b, err := s.GetInspection(ctx, "bld-1", period)
	require.NoError(t, err)

	a.Items[0].Status = model.ItemPassed
	a.Status = a.DeriveStatus()
	require.NoError(t, s.UpdateInspection(ctx, a))

	b.Items[1].Status = model.ItemFailed
	assert.ErrorIs(t, s.UpdateInspection(ctx, b), ErrConflict)

	ghost := testChecklist("bld-9", model.Period{Year: 2026, Month: 1})
	assert.ErrorIs(t, s.UpdateInspection(ctx, ghost), ErrNotFound)
}

func TestMemoryStore_IssuesAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	is := &model.Issue{
		ID:              "iss-1",
		ChecklistItemID: "it-1",
		Title:           "Extinguisher past service date",
		Severity:        model.SeverityHigh,
		Status:          model.IssueOpen,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.CreateIssue(ctx, is))

	list, err := s.ListIssuesByItem(ctx, "it-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	is.Status = model.IssueInProgress
	require.NoError(t, s.UpdateIssue(ctx, is))
	got, err := s.GetIssue(ctx, "iss-1")
	require.NoError(t, err)
	assert.Equal(t, model.IssueInProgress, got.Status)

	last := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	stats := []model.SpaceStats{{SpaceID: "sp-1", BuildingID: "bld-1", PhotoCount: 3, LastPhotoAt: &last}}
	require.NoError(t, s.PutSpaceStats(ctx, "bld-1", stats))
	gotStats, err := s.GetSpaceStats(ctx, "bld-1")
	require.NoError(t, err)
	require.Len(t, gotStats, 1)
	assert.Equal(t, 3, gotStats[0].PhotoCount)
}

func TestMemoryStore_SpacesSeedAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemory()

	err := s.SeedSpaces(ctx, []model.BuildingSpace{
		{ID: "sp-1", BuildingID: "bld-1", Name: "Boiler Room", Geofence: &model.Geofence{
			Center: model.Coordinate{Latitude: 37.5, Longitude: 127.0}, Radius: 5,
		}},
		{ID: "sp-2", BuildingID: "bld-2", Name: "Lobby"},
	})
	require.NoError(t, err)

	spaces, err := s.ListSpaces(ctx, "bld-1")
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Boiler Room", spaces[0].Name)
}
