package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/fieldops/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "fieldops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_PhotoRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	p := testPhoto("ph-1", "bld-1")
	p.SmartLocation = &model.SmartLocation{DetectedSpaceID: "sp-1", Confidence: 72.5}
	require.NoError(t, s.CreatePhoto(ctx, p))

	got, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, p.BuildingID, got.BuildingID)
	assert.Equal(t, []string{"boiler"}, got.Tags)
	require.NotNil(t, got.SmartLocation)
	assert.InDelta(t, 72.5, got.SmartLocation.Confidence, 0.001)
	assert.Nil(t, got.WorkerOverride)
	assert.EqualValues(t, 1, got.Version)

	got.WorkerOverride = &model.WorkerOverride{SpaceID: "sp-2", Note: "actually the annex"}
	require.NoError(t, s.UpdatePhoto(ctx, got))
	assert.EqualValues(t, 2, got.Version)

	again, err := s.GetPhoto(ctx, "ph-1")
	require.NoError(t, err)
	require.NotNil(t, again.WorkerOverride)
	assert.Equal(t, "sp-2", again.WorkerOverride.SpaceID)

	// Stale write: replay the update with the old version.
	stale := *again
	stale.Version = 1
	assert.ErrorIs(t, s.UpdatePhoto(ctx, &stale), ErrConflict)

	_, err = s.GetPhoto(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListPhotosByBuildingOrdersByCapture(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	older := testPhoto("ph-old", "bld-1")
	older.CaptureTimestamp = time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	newer := testPhoto("ph-new", "bld-1")
	newer.CaptureTimestamp = time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	other := testPhoto("ph-other", "bld-2")

	for _, p := range []*model.PhotoEvidence{older, newer, other} {
		require.NoError(t, s.CreatePhoto(ctx, p))
	}

	photos, err := s.ListPhotosByBuilding(ctx, "bld-1")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "ph-new", photos[0].ID)
	assert.Equal(t, "ph-old", photos[1].ID)
}

func TestSQLiteStore_InspectionSingletonAndItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)
	period := model.Period{Year: 2026, Month: 8}

	c := testChecklist("bld-1", period)
	require.NoError(t, s.CreateInspection(ctx, c))

	dup := testChecklist("bld-1", period)
	dup.ID = "insp-dup"
	assert.ErrorIs(t, s.CreateInspection(ctx, dup), ErrAlreadyExists)

	got, err := s.GetInspection(ctx, "bld-1", period)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "it-1", got.Items[0].ID)
	assert.Equal(t, model.InspectionScheduled, got.Status)

	got.Items[0].Status = model.ItemPassed
	got.Items[0].Notes = "both units serviced in July"
	got.Status = got.DeriveStatus()
	require.NoError(t, s.UpdateInspection(ctx, got))

	reread, err := s.GetInspectionByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InspectionInProgress, reread.Status)
	assert.Equal(t, model.ItemPassed, reread.Items[0].Status)
	assert.Equal(t, "both units serviced in July", reread.Items[0].Notes)
	assert.EqualValues(t, 2, reread.Version)

	stale := *got
	stale.Version = 1
	assert.ErrorIs(t, s.UpdateInspection(ctx, &stale), ErrConflict)
}

func TestSQLiteStore_SpacesAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	spaces := []model.BuildingSpace{
		{ID: "sp-1", BuildingID: "bld-1", Name: "Boiler Room", Category: "mechanical", Floor: "B1",
			Geofence: &model.Geofence{Center: model.Coordinate{Latitude: 37.5, Longitude: 127.0}, Radius: 5}},
		{ID: "sp-2", BuildingID: "bld-1", Name: "Lobby"},
	}
	require.NoError(t, s.SeedSpaces(ctx, spaces))
	// Seeding again is an upsert, not a duplicate.
	require.NoError(t, s.SeedSpaces(ctx, spaces))

	got, err := s.ListSpaces(ctx, "bld-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Geofence)
	assert.InDelta(t, 5.0, got[0].Geofence.Radius, 0.001)
	assert.Nil(t, got[1].Geofence)

	last := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutSpaceStats(ctx, "bld-1", []model.SpaceStats{
		{SpaceID: "sp-1", BuildingID: "bld-1", PhotoCount: 4, LastPhotoAt: &last},
	}))
	stats, err := s.GetSpaceStats(ctx, "bld-1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].PhotoCount)
	require.NotNil(t, stats[0].LastPhotoAt)
	assert.True(t, stats[0].LastPhotoAt.Equal(last))
}

func TestSQLiteStore_IssueLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	is := &model.Issue{
		ID:              "iss-1",
		ChecklistItemID: "it-1",
		Title:           "Extinguisher past service date",
		Description:     "Tag shows 2024",
		Severity:        model.SeverityHigh,
		Status:          model.IssueOpen,
		CreatedAt:       time.Date(2026, 8, 5, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateIssue(ctx, is))
	assert.ErrorIs(t, s.CreateIssue(ctx, is), ErrAlreadyExists)

	resolved := time.Date(2026, 8, 7, 16, 0, 0, 0, time.UTC)
	is.Status = model.IssueResolved
	is.ResolvedAt = &resolved
	require.NoError(t, s.UpdateIssue(ctx, is))

	got, err := s.GetIssue(ctx, "iss-1")
	require.NoError(t, err)
	assert.Equal(t, model.IssueResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	list, err := s.ListIssuesByItem(ctx, "it-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
