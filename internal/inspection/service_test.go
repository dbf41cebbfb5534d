package inspection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewatch/fieldops/internal/model"
	"github.com/sitewatch/fieldops/internal/store"
)

var fixedNow = time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	svc := NewService(st, NewStaticTemplate([]TemplateItem{
		{Category: "safety", Title: "Extinguishers charged"},
		{Category: "mechanical", Title: "Boiler room dry"},
		{Category: "cleaning", Title: "Lobby cleaned"},
	}), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func TestGetOrCreateInspection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	period := model.Period{Year: 2026, Month: 8}

	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", period)
	require.NoError(t, err)
	assert.Equal(t, model.InspectionScheduled, checklist.Status)
	assert.Equal(t, period, checklist.Period)
	require.Len(t, checklist.Items, 3)
	for _, it := range checklist.Items {
		assert.Equal(t, model.ItemPending, it.Status)
		assert.NotEmpty(t, it.ID)
	}
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), checklist.NextInspectionDate)

	// Same month, same checklist.
	again, err := svc.GetOrCreateInspection(ctx, "bld-1", period)
	require.NoError(t, err)
	assert.Equal(t, checklist.ID, again.ID)

	// A different month gets its own.
	dec, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 12})
	require.NoError(t, err)
	assert.NotEqual(t, checklist.ID, dec.ID)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), dec.NextInspectionDate)
}

func TestGetOrCreateInspection_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.GetOrCreateInspection(ctx, "", model.Period{Year: 2026, Month: 8})
	assert.Error(t, err)

	_, err = svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 13})
	assert.Error(t, err)
}

func TestGetOrCreateInspection_ConcurrentSingleton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	period := model.Period{Year: 2026, Month: 8}

	ids := make([]string, 16)
	var wg sync.WaitGroup
	for i := range ids {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", period)
			if assert.NoError(t, err) {
				ids[i] = checklist.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
}

func TestUpdateChecklistItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)

	// First progress stamps the inspection date and moves to in_progress.
	updated, err := svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[0].ID, model.ItemPassed, "all charged")
	require.NoError(t, err)
	assert.Equal(t, model.InspectionInProgress, updated.Status)
	require.NotNil(t, updated.InspectionDate)
	assert.True(t, updated.InspectionDate.Equal(fixedNow))
	assert.Equal(t, model.ItemPassed, updated.Items[0].Status)
	assert.Equal(t, "all charged", updated.Items[0].Notes)

	// Finishing every item completes the checklist.
	_, err = svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[1].ID, model.ItemNotApplicable, "")
	require.NoError(t, err)
	updated, err = svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[2].ID, model.ItemPassed, "")
	require.NoError(t, err)
	assert.Equal(t, model.InspectionCompleted, updated.Status)

	// A completed checklist never moves backward: resetting an item to
	// pending is rejected and the stored state stays completed.
	_, err = svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[2].ID, model.ItemPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := st.GetInspectionByID(ctx, checklist.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InspectionCompleted, got.Status)
	assert.Equal(t, model.ItemPassed, got.Item(checklist.Items[2].ID).Status)

	// Correcting a finished item between done states is still allowed.
	updated, err = svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[2].ID, model.ItemFailed, "scuffed on recheck")
	require.NoError(t, err)
	assert.Equal(t, model.InspectionCompleted, updated.Status)
	assert.Equal(t, model.ItemFailed, updated.Items[2].Status)
}

func TestUpdateChecklistItem_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)

	_, err = svc.UpdateChecklistItem(ctx, checklist.ID, "item-missing", model.ItemPassed, "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateChecklistItem(ctx, "cl-missing", checklist.Items[0].ID, model.ItemPassed, "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateChecklistItem(ctx, checklist.ID, checklist.Items[0].ID, model.ItemStatus("bogus"), "")
	assert.Error(t, err)
}

func TestAssignInspector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, st := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)

	_, err = svc.AssignInspector(ctx, checklist.ID, "insp-7", "Kim Minjun")
	require.NoError(t, err)

	got, err := st.GetInspectionByID(ctx, checklist.ID)
	require.NoError(t, err)
	assert.Equal(t, "insp-7", got.InspectorID)
	assert.Equal(t, "Kim Minjun", got.InspectorName)
}

func TestCreateIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)
	itemID := checklist.Items[1].ID

	issue, err := svc.CreateIssue(ctx, checklist.ID, itemID, "Boiler drip pan overflowing", "slow leak at valve", model.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, model.IssueOpen, issue.Status)
	assert.Equal(t, itemID, issue.ChecklistItemID)
	assert.True(t, issue.CreatedAt.Equal(fixedNow))

	listed, err := svc.ListIssues(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, issue.ID, listed[0].ID)
}

func TestCreateIssue_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)

	_, err = svc.CreateIssue(ctx, checklist.ID, "item-missing", "title", "", model.SeverityLow)
	assert.ErrorIs(t, err, store.ErrInvalidReference)

	_, err = svc.CreateIssue(ctx, checklist.ID, checklist.Items[0].ID, "", "", model.SeverityLow)
	assert.Error(t, err)

	_, err = svc.CreateIssue(ctx, checklist.ID, checklist.Items[0].ID, "title", "", model.IssueSeverity("urgent"))
	assert.Error(t, err)
}

func TestFailItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)
	itemID := checklist.Items[0].ID

	updated, issue, err := svc.FailItem(ctx, checklist.ID, itemID, "two units discharged", model.SeverityMedium)
	require.NoError(t, err)
	assert.Equal(t, model.ItemFailed, updated.Item(itemID).Status)
	assert.Equal(t, model.InspectionInProgress, updated.Status)
	assert.Equal(t, "Extinguishers charged", issue.Title)
	assert.Equal(t, "two units discharged", issue.Description)
	assert.Equal(t, model.SeverityMedium, issue.Severity)
	assert.Equal(t, model.IssueOpen, issue.Status)
}

func TestAdvanceIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t)
	checklist, err := svc.GetOrCreateInspection(ctx, "bld-1", model.Period{Year: 2026, Month: 8})
	require.NoError(t, err)
	_, issue, err := svc.FailItem(ctx, checklist.ID, checklist.Items[0].ID, "broken", model.SeverityLow)
	require.NoError(t, err)

	issue, err = svc.AdvanceIssue(ctx, issue.ID, model.IssueInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.IssueInProgress, issue.Status)
	assert.Nil(t, issue.ResolvedAt)

	issue, err = svc.AdvanceIssue(ctx, issue.ID, model.IssueResolved)
	require.NoError(t, err)
	require.NotNil(t, issue.ResolvedAt)
	assert.True(t, issue.ResolvedAt.Equal(fixedNow))

	// Skipping states forward is allowed; going back is not.
	_, err = svc.AdvanceIssue(ctx, issue.ID, model.IssueOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.AdvanceIssue(ctx, issue.ID, model.IssueResolved)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	issue, err = svc.AdvanceIssue(ctx, issue.ID, model.IssueClosed)
	require.NoError(t, err)
	assert.Equal(t, model.IssueClosed, issue.Status)

	_, err = svc.AdvanceIssue(ctx, "iss-missing", model.IssueClosed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
