// Package rollup computes statistics over a merged activity ledger.
// Everything here is a pure function of its inputs: no I/O, no clock reads.
package rollup

import (
	"time"

	"github.com/sitewatch/fieldops/internal/model"
)

// Summary is the rollup computed over a ledger for a reference time.
type Summary struct {
	TotalCompletions    int `json:"total_completions"`
	CompletionsToday    int `json:"completions_today"`
	CompletionsThisWeek int `json:"completions_this_week"`

	// VerificationRate is the percentage of records carrying a verification
	// method, always within [0, 100].
	VerificationRate float64 `json:"verification_rate"`
}

// Stats computes the Summary for a ledger. referenceNow supplies the clock,
// which keeps the result deterministic: "today" is [midnight of
// referenceNow, referenceNow) and "this week" starts Monday 00:00, both in
// referenceNow's location.
func Stats(ledger []model.WorkRecord, referenceNow time.Time) Summary {
	s := Summary{TotalCompletions: len(ledger)}
	if len(ledger) == 0 {
		return s
	}

	dayStart := midnight(referenceNow)
	weekStart := startOfWeek(referenceNow)

	verified := 0
	for _, rec := range ledger {
		if rec.Verified() {
			verified++
		}
		if rec.CompletedAt == nil {
			continue
		}
		done := rec.CompletedAt.In(referenceNow.Location())
		if inWindow(done, dayStart, referenceNow) {
			s.CompletionsToday++
		}
		if inWindow(done, weekStart, referenceNow) {
			s.CompletionsThisWeek++
		}
	}

	s.VerificationRate = float64(verified) / float64(s.TotalCompletions) * 100
	return s
}

// Breakdown counts ledger records by work type and by status.
type Breakdown struct {
	ByWorkType map[model.WorkType]int   `json:"by_work_type"`
	ByStatus   map[model.WorkStatus]int `json:"by_status"`
}

// Group computes per-category and per-status counts over a ledger.
func Group(ledger []model.WorkRecord) Breakdown {
	b := Breakdown{
		ByWorkType: make(map[model.WorkType]int),
		ByStatus:   make(map[model.WorkStatus]int),
	}
	for _, rec := range ledger {
		b.ByWorkType[rec.WorkType]++
		b.ByStatus[rec.Status]++
	}
	return b
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return midnight(t).AddDate(0, 0, -daysSinceMonday)
}
