package model

import "time"

// IssueSeverity ranks how urgent a reported problem is.
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

// IssueStatus is the lifecycle state of an issue. Transitions are
// worker-driven and only move forward.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueClosed     IssueStatus = "closed"
)

// issueRank orders statuses for the forward-only transition check.
var issueRank = map[IssueStatus]int{
	IssueOpen:       0,
	IssueInProgress: 1,
	IssueResolved:   2,
	IssueClosed:     3,
}

// CanTransition reports whether moving from one issue status to another is
// a legal forward move.
func CanTransition(from, to IssueStatus) bool {
	fr, ok := issueRank[from]
	if !ok {
		return false
	}
	tr, ok := issueRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

// Issue is a problem record spawned from a failed checklist item or filed
// manually against one. Version supports optimistic concurrency.
type Issue struct {
	ID              string        `json:"id"`
	ChecklistItemID string        `json:"checklist_item_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Severity        IssueSeverity `json:"severity"`
	Status          IssueStatus   `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
	Version         int64         `json:"version"`
}
