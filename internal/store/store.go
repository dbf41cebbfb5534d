// Package store defines the persistence contract for the verification
// engine and its memory, sqlite, and postgres backends.
package store

import (
	"context"

	"github.com/sitewatch/fieldops/internal/model"
)

// Store is the persistence interface the engine components operate on.
//
// Photo and inspection writes use optimistic concurrency: Update methods
// compare the record's Version against the stored row and fail with
// ErrConflict on a stale read. On success the stored version is incremented
// and the passed record's Version is updated in place.
type Store interface {
	// Photos
	CreatePhoto(ctx context.Context, photo *model.PhotoEvidence) error
	GetPhoto(ctx context.Context, id string) (*model.PhotoEvidence, error)
	UpdatePhoto(ctx context.Context, photo *model.PhotoEvidence) error
	ListPhotosByBuilding(ctx context.Context, buildingID string) ([]model.PhotoEvidence, error)

	// Building spaces: read-only reference data owned by building
	// configuration. SeedSpaces exists for tests and ops tooling.
	ListSpaces(ctx context.Context, buildingID string) ([]model.BuildingSpace, error)
	SeedSpaces(ctx context.Context, spaces []model.BuildingSpace) error

	// Space photo rollups, recomputed by the evidence correlator.
	GetSpaceStats(ctx context.Context, buildingID string) ([]model.SpaceStats, error)
	PutSpaceStats(ctx context.Context, buildingID string, stats []model.SpaceStats) error

	// Inspections
	CreateInspection(ctx context.Context, checklist *model.InspectionChecklist) error
	GetInspection(ctx context.Context, buildingID string, period model.Period) (*model.InspectionChecklist, error)
	GetInspectionByID(ctx context.Context, id string) (*model.InspectionChecklist, error)
	UpdateInspection(ctx context.Context, checklist *model.InspectionChecklist) error

	// Issues
	CreateIssue(ctx context.Context, issue *model.Issue) error
	GetIssue(ctx context.Context, id string) (*model.Issue, error)
	UpdateIssue(ctx context.Context, issue *model.Issue) error
	ListIssuesByItem(ctx context.Context, checklistItemID string) ([]model.Issue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
