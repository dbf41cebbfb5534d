package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// WorkType identifies the source category a work record originated from.
type WorkType string

const (
	WorkTypeRoutine     WorkType = "routine"
	WorkTypeTask        WorkType = "task"
	WorkTypeMaintenance WorkType = "maintenance"
	WorkTypeInspection  WorkType = "inspection"
	WorkTypeRepair      WorkType = "repair"
	WorkTypeEmergency   WorkType = "emergency"
	WorkTypeDeparture   WorkType = "departure"
)

// WorkStatus represents the completion state of a work record.
type WorkStatus string

const (
	WorkStatusCompleted  WorkStatus = "completed"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusPending    WorkStatus = "pending"
	WorkStatusFailed     WorkStatus = "failed"
	WorkStatusCancelled  WorkStatus = "cancelled"
)

// WorkRecord is the normalized shape every source collector's items are
// mapped into before merging. IDs are source-prefixed (e.g. "task:42"),
// which keeps them globally unique across collectors.
type WorkRecord struct {
	ID                 string     `json:"id"`
	WorkType           WorkType   `json:"work_type"`
	BuildingID         string     `json:"building_id"`
	WorkerID           string     `json:"worker_id"`
	WorkerName         string     `json:"worker_name"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Status             WorkStatus `json:"status"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Location           string     `json:"location,omitempty"`
	VerificationMethod string     `json:"verification_method,omitempty"`
}

// Verified reports whether the record carries any verification method.
func (r WorkRecord) Verified() bool {
	return r.VerificationMethod != ""
}

// Validate checks the fields required for ledger inclusion.
func (r WorkRecord) Validate() error {
	if r.ID == "" {
		return eris.New("work record: missing id")
	}
	if r.BuildingID == "" {
		return eris.Errorf("work record %s: missing building id", r.ID)
	}
	switch r.WorkType {
	case WorkTypeRoutine, WorkTypeTask, WorkTypeMaintenance, WorkTypeInspection,
		WorkTypeRepair, WorkTypeEmergency, WorkTypeDeparture:
	default:
		return eris.Errorf("work record %s: unknown work type %q", r.ID, r.WorkType)
	}
	switch r.Status {
	case WorkStatusCompleted, WorkStatusInProgress, WorkStatusPending,
		WorkStatusFailed, WorkStatusCancelled:
	default:
		return eris.Errorf("work record %s: unknown status %q", r.ID, r.Status)
	}
	return nil
}
