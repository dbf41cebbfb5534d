package model

import (
	"fmt"
	"time"
)

// InspectionStatus is the overall state of a monthly inspection checklist.
// Transitions only move forward: scheduled -> in_progress -> completed.
type InspectionStatus string

const (
	InspectionScheduled  InspectionStatus = "scheduled"
	InspectionInProgress InspectionStatus = "in_progress"
	InspectionCompleted  InspectionStatus = "completed"
)

// ItemStatus is the state of a single checklist item.
type ItemStatus string

const (
	ItemPending       ItemStatus = "pending"
	ItemPassed        ItemStatus = "passed"
	ItemFailed        ItemStatus = "failed"
	ItemNotApplicable ItemStatus = "not_applicable"
)

// Period identifies the month an inspection checklist covers.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Valid reports whether the period names a real month.
func (p Period) Valid() bool {
	return p.Year >= 2000 && p.Year <= 9999 && p.Month >= 1 && p.Month <= 12
}

// Next returns the following month's period.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ChecklistItem is one inspectable unit within a monthly inspection.
type ChecklistItem struct {
	ID       string     `json:"id"`
	Category string     `json:"category"`
	Title    string     `json:"title"`
	SpaceID  string     `json:"space_id,omitempty"`
	Status   ItemStatus `json:"status"`
	Notes    string     `json:"notes,omitempty"`
}

// InspectionChecklist is the singleton monthly inspection for a building.
// Exactly one exists per (building, year, month). Version supports
// optimistic concurrency on item updates.
type InspectionChecklist struct {
	ID                 string           `json:"id"`
	BuildingID         string           `json:"building_id"`
	Period             Period           `json:"period"`
	InspectorID        string           `json:"inspector_id,omitempty"`
	InspectorName      string           `json:"inspector_name,omitempty"`
	InspectionDate     *time.Time       `json:"inspection_date,omitempty"`
	Status             InspectionStatus `json:"status"`
	Items              []ChecklistItem  `json:"items"`
	NextInspectionDate time.Time        `json:"next_inspection_date"`
	Version            int64            `json:"version"`
}

// Item returns a pointer to the item with the given id, or nil.
func (c *InspectionChecklist) Item(itemID string) *ChecklistItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// DeriveStatus computes the checklist status from its items: completed when
// every item left pending, in_progress when some did, scheduled otherwise.
func (c *InspectionChecklist) DeriveStatus() InspectionStatus {
	if len(c.Items) == 0 {
		return c.Status
	}
	done := 0
	for _, it := range c.Items {
		if it.Status != ItemPending {
			done++
		}
	}
	switch {
	case done == len(c.Items):
		return InspectionCompleted
	case done > 0:
		return InspectionInProgress
	default:
		return InspectionScheduled
	}
}
