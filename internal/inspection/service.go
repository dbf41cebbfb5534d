package inspection

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sitewatch/fieldops/internal/metrics"
	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/store"
)

// ErrInvalidTransition is returned when an issue status move goes backward
// or names an unknown status, and when an item update would move a completed
// checklist back out of completed.
var ErrInvalidTransition = errors.New("invalid transition")

func newID() string {
	return uuid.NewString()
}

// Service runs the monthly inspection lifecycle on top of a Store. All item
// and issue writes use optimistic concurrency; callers see store.ErrConflict
// on a stale read and retry with fresh state.
type Service struct {
	store    store.Store
	template TemplateProvider
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. provider and m may be nil; a nil provider
// falls back to the compiled-in template.
func NewService(st store.Store, provider TemplateProvider, m *metrics.Metrics) *Service {
	if provider == nil {
		provider = DefaultTemplate()
	}
	return &Service{
		store:    st,
		template: provider,
		metrics:  m,
		log:      zap.L().With(zap.String("component", "inspection.service")),
		now:      time.Now,
	}
}

// GetOrCreateInspection returns the singleton checklist for a building and
// month, creating it from the template on first access. Concurrent creators
// race on the store's uniqueness constraint; the loser re-reads the winner's
// row, so both callers see the same checklist.
func (s *Service) GetOrCreateInspection(ctx context.Context, buildingID string, period model.Period) (*model.InspectionChecklist, error) {
	if buildingID == "" {
		return nil, eris.New("inspection: building id required")
	}
	if !period.Valid() {
		return nil, eris.Errorf("inspection: invalid period %s", period)
	}

	existing, err := s.store.GetInspection(ctx, buildingID, period)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	items, err := s.template.Template(buildingID)
	if err != nil {
		return nil, err
	}
	checklist := &model.InspectionChecklist{
		ID:                 newID(),
		BuildingID:         buildingID,
		Period:             period,
		Status:             model.InspectionScheduled,
		Items:              instantiate(items),
		NextInspectionDate: period.Next().Start(),
	}

	if err := s.store.CreateInspection(ctx, checklist); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the creation race; the winner's checklist is canonical.
			return s.store.GetInspection(ctx, buildingID, period)
		}
		return nil, err
	}
	s.log.Info("created inspection checklist",
		zap.String("building_id", buildingID),
		zap.String("period", period.String()),
		zap.Int("items", len(checklist.Items)),
	)
	return checklist, nil
}

// UpdateChecklistItem sets an item's status and notes, stamps the inspector
// and inspection date on first progress, and rederives the checklist status.
// Checklist status only moves forward: once completed, an update that would
// regress it (resetting an item to pending) fails with ErrInvalidTransition.
func (s *Service) UpdateChecklistItem(ctx context.Context, checklistID, itemID string, status model.ItemStatus, notes string) (*model.InspectionChecklist, error) {
	switch status {
	case model.ItemPending, model.ItemPassed, model.ItemFailed, model.ItemNotApplicable:
	default:
		return nil, eris.Errorf("inspection: unknown item status %q", status)
	}

	checklist, err := s.store.GetInspectionByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	item := checklist.Item(itemID)
	if item == nil {
		return nil, eris.Wrapf(store.ErrNotFound,
			"inspection: item %s not in checklist %s", itemID, checklistID)
	}

	item.Status = status
	item.Notes = notes
	next := checklist.DeriveStatus()
	if checklist.Status == model.InspectionCompleted && next != model.InspectionCompleted {
		return nil, eris.Wrapf(ErrInvalidTransition,
			"inspection: checklist %s is completed", checklistID)
	}
	checklist.Status = next
	if checklist.Status != model.InspectionScheduled && checklist.InspectionDate == nil {
		at := s.now().UTC()
		checklist.InspectionDate = &at
	}

	if err := s.store.UpdateInspection(ctx, checklist); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.metrics.IncWriteConflict("inspection")
		}
		return nil, err
	}
	return checklist, nil
}

// AssignInspector records who is performing the inspection.
func (s *Service) AssignInspector(ctx context.Context, checklistID, inspectorID, inspectorName string) (*model.InspectionChecklist, error) {
	checklist, err := s.store.GetInspectionByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	checklist.InspectorID = inspectorID
	checklist.InspectorName = inspectorName
	if err := s.store.UpdateInspection(ctx, checklist); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.metrics.IncWriteConflict("inspection")
		}
		return nil, err
	}
	return checklist, nil
}

// CreateIssue files an issue against a checklist item. The item must exist
// in the named checklist.
func (s *Service) CreateIssue(ctx context.Context, checklistID, itemID, title, description string, severity model.IssueSeverity) (*model.Issue, error) {
	if title == "" {
		return nil, eris.New("inspection: issue title required")
	}
	switch severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical:
	default:
		return nil, eris.Errorf("inspection: unknown severity %q", severity)
	}

	checklist, err := s.store.GetInspectionByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if checklist.Item(itemID) == nil {
		return nil, eris.Wrapf(store.ErrInvalidReference,
			"inspection: item %s not in checklist %s", itemID, checklistID)
	}

	issue := &model.Issue{
		ID:              newID(),
		ChecklistItemID: itemID,
		Title:           title,
		Description:     description,
		Severity:        severity,
		Status:          model.IssueOpen,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}
	s.log.Info("created issue",
		zap.String("issue_id", issue.ID),
		zap.String("item_id", itemID),
		zap.String("severity", string(severity)),
	)
	return issue, nil
}

// FailItem marks an item failed and files an issue against it in one call,
// the common path when a walk-through finds a problem.
func (s *Service) FailItem(ctx context.Context, checklistID, itemID, notes string, severity model.IssueSeverity) (*model.InspectionChecklist, *model.Issue, error) {
	checklist, err := s.UpdateChecklistItem(ctx, checklistID, itemID, model.ItemFailed, notes)
	if err != nil {
		return nil, nil, err
	}
	item := checklist.Item(itemID)
	title := item.Title
	issue, err := s.CreateIssue(ctx, checklistID, itemID, title, notes, severity)
	if err != nil {
		return nil, nil, err
	}
	return checklist, issue, nil
}

// AdvanceIssue moves an issue forward through its lifecycle. Backward moves
// and same-state moves fail with ErrInvalidTransition. Reaching resolved
// stamps ResolvedAt.
func (s *Service) AdvanceIssue(ctx context.Context, issueID string, to model.IssueStatus) (*model.Issue, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(issue.Status, to) {
		return nil, eris.Wrapf(ErrInvalidTransition,
			"inspection: issue %s cannot move %s -> %s", issueID, issue.Status, to)
	}

	issue.Status = to
	if to == model.IssueResolved && issue.ResolvedAt == nil {
		at := s.now().UTC()
		issue.ResolvedAt = &at
	}
	if err := s.store.UpdateIssue(ctx, issue); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.metrics.IncWriteConflict("issue")
		}
		return nil, err
	}
	return issue, nil
}

// ListIssues returns the issues filed against a checklist item.
func (s *Service) ListIssues(ctx context.Context, checklistItemID string) ([]model.Issue, error) {
	return s.store.ListIssuesByItem(ctx, checklistItemID)
}
