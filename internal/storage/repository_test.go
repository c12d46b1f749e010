package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransaction(tag core.EnvelopeTag, cents int64) core.Transaction {
	return core.Transaction{
		ID:            uuid.NewString(),
		Date:          "2025-03-10",
		Envelope:      tag,
		Amount:        core.Money{Cents: cents},
		Description:   "test entry",
		PaymentMethod: "debit",
		Type:          core.TypeExpense,
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := core.NewPeriod("2025-03")
	p.Income = 250000
	p.EnsureEnvelope(core.EnvelopeRef{Category: "needs", Name: "groceries"}).Budgeted = 40000
	p.EnsureEnvelope(core.EnvelopeRef{Category: "wants", Name: "books"}).Budgeted = 5000

	require.NoError(t, repo.SavePeriod(ctx, p))

	got, err := repo.GetPeriod(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(250000), got.Income)
	assert.Equal(t, int64(45000), got.TotalBudgeted())

	env := got.Envelope(core.EnvelopeRef{Category: "needs", Name: "groceries"})
	require.NotNil(t, env)
	assert.Equal(t, int64(40000), env.Budgeted)
}

func TestGetPeriodNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetPeriod(context.Background(), "1999-01")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsurePeriod(ctx, "2025-03"))
	tag := core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag()

	tx := testTransaction(tag, 1250)
	localID, err := repo.InsertTransaction(ctx, "2025-03", tx, false)
	require.NoError(t, err)
	assert.Positive(t, localID)

	stored, err := repo.GetTransaction(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.Tx.ID)
	assert.Equal(t, int64(1250), stored.Tx.Amount.Cents)
	assert.Equal(t, core.PeriodKey("2025-03"), stored.PeriodKey)
	assert.False(t, stored.Blocked)

	// Correction bumps the version and re-queues the row for sync.
	require.NoError(t, repo.MarkTransactionSynced(ctx, localID))
	require.NoError(t, repo.UpdateTransactionPaymentMethod(ctx, tx.ID, "credit"))

	stored, err = repo.GetTransaction(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, "credit", stored.Tx.PaymentMethod)
	assert.Equal(t, int64(2), stored.Version)

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, localID, pending[0].LocalID)

	deletedID, err := repo.DeleteTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, localID, deletedID, "delete must report the removed row's local id")
	_, err = repo.DeleteTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInsertTransactionPairIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsurePeriod(ctx, "2025-03"))
	tag := core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag()

	out := testTransaction(core.TagTransfer, 5000)
	out.Type = core.TypeTransferOut
	in := testTransaction(core.TagTransfer, 5000)
	in.Type = core.TypeTransferIn

	outID, inID, err := repo.InsertTransactionPair(ctx, "2025-03", out, in)
	require.NoError(t, err)
	assert.Positive(t, outID)
	assert.Equal(t, outID+1, inID)

	// A duplicate uid fails the second insert; the first half must roll
	// back with it.
	existing := testTransaction(tag, 1000)
	_, err = repo.InsertTransaction(ctx, "2025-03", existing, false)
	require.NoError(t, err)

	orphan := testTransaction(core.TagTransfer, 2500)
	orphan.Type = core.TypeTransferOut
	dup := testTransaction(core.TagTransfer, 2500)
	dup.Type = core.TypeTransferIn
	dup.ID = existing.ID

	_, _, err = repo.InsertTransactionPair(ctx, "2025-03", orphan, dup)
	require.Error(t, err)

	p, err := repo.GetPeriod(ctx, "2025-03")
	require.NoError(t, err)
	for _, tx := range p.Transactions {
		assert.NotEqual(t, orphan.ID, tx.ID, "failed pair must leave no lone half behind")
	}
}

func TestBlockedTransactionsLoadSeparately(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsurePeriod(ctx, "2025-03"))
	tag := core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag()

	_, err := repo.InsertTransaction(ctx, "2025-03", testTransaction(tag, 1000), false)
	require.NoError(t, err)
	_, err = repo.InsertTransaction(ctx, "2025-03", testTransaction(tag, 99999), true)
	require.NoError(t, err)

	p, err := repo.GetPeriod(ctx, "2025-03")
	require.NoError(t, err)
	assert.Len(t, p.Transactions, 1)
	assert.Len(t, p.BlockedTransactions, 1)
	assert.Equal(t, int64(99999), p.BlockedTransactions[0].Amount.Cents)
}

func TestHabitCRUDAndCascade(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	h := core.Habit{
		ID:        uuid.NewString(),
		Name:      "meditate",
		Trigger:   "after coffee",
		Time:      "07:30",
		Location:  "study",
		Frequency: core.Frequency{Kind: core.FreqSpecificDays, Days: []int{0, 2, 4}},
		IsActive:  true,
		CreatedAt: "2025-01-01",
	}
	require.NoError(t, repo.CreateHabit(ctx, h))

	got, err := repo.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, core.FreqSpecificDays, got.Frequency.Kind)
	assert.Equal(t, []int{0, 2, 4}, got.Frequency.Days)

	h.Name = "meditate longer"
	h.IsActive = false
	require.NoError(t, repo.UpdateHabit(ctx, h))
	got, err = repo.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "meditate longer", got.Name)
	assert.False(t, got.IsActive)

	_, err = repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: "2025-03-10", Status: core.StatusDone})
	require.NoError(t, err)

	// Deleting the habit removes its logs.
	require.NoError(t, repo.DeleteHabit(ctx, h.ID))
	logs, err := repo.ListHabitLogs(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.ErrorIs(t, repo.DeleteHabit(ctx, h.ID), core.ErrNotFound)
}

func TestUpsertHabitLogReplacesStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	h := core.Habit{
		ID:        uuid.NewString(),
		Name:      "run",
		Frequency: core.Frequency{Kind: core.FreqDaily},
		IsActive:  true,
		CreatedAt: "2025-01-01",
	}
	require.NoError(t, repo.CreateHabit(ctx, h))

	id1, err := repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: "2025-03-10", Status: core.StatusSkipped})
	require.NoError(t, err)
	id2, err := repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: "2025-03-10", Status: core.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same habit/date pair must keep one row")

	logs, err := repo.ListHabitLogs(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, core.StatusDone, logs[0].Status)

	deletedID, err := repo.DeleteHabitLog(ctx, h.ID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, id1, deletedID, "delete must report the removed row's local id")
	_, err = repo.DeleteHabitLog(ctx, h.ID, "2025-03-10")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGoalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := core.Goal{
		ID:           uuid.NewString(),
		Title:        "Read more",
		YearlyTarget: 24,
		Unit:         "books",
		StartDate:    "2025-01-01",
		EndDate:      "2025-12-31",
		Milestones: []core.Milestone{
			{ID: uuid.NewString(), Date: "2025-06-30", Description: "halfway"},
		},
	}
	require.NoError(t, repo.CreateGoal(ctx, g))

	got, err := repo.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read more", got.Title)
	require.Len(t, got.Milestones, 1)
	assert.False(t, got.Milestones[0].Completed)

	require.NoError(t, repo.CompleteMilestone(ctx, g.Milestones[0].ID))
	require.NoError(t, repo.UpdateGoalProgress(ctx, g.ID, 13))

	got, err = repo.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, got.Milestones[0].Completed)
	assert.Equal(t, float64(13), got.ActualProgress)

	require.NoError(t, repo.DeleteGoal(ctx, g.ID))
	_, err = repo.GetGoal(ctx, g.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecurringTemplates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateRecurringTemplate(ctx, RecurringTemplate{
		Envelope:      core.EnvelopeRef{Category: "needs", Name: "rent"}.Tag(),
		Amount:        core.Money{Cents: 120000},
		Description:   "monthly rent",
		PaymentMethod: "debit",
		Type:          core.TypeExpense,
		DayOfMonth:    1,
		IsActive:      true,
	})
	require.NoError(t, err)

	templates, err := repo.ListActiveRecurringTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, core.PeriodKey(""), templates[0].LastPostedPeriod)

	require.NoError(t, repo.MarkRecurringPosted(ctx, id, "2025-03"))
	templates, err = repo.ListActiveRecurringTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.PeriodKey("2025-03"), templates[0].LastPostedPeriod)

	require.NoError(t, repo.DeactivateRecurringTemplate(ctx, id))
	templates, err = repo.ListActiveRecurringTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestPaymentMethods(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	methods, err := repo.ListPaymentMethods(ctx)
	require.NoError(t, err)
	assert.Contains(t, methods, "cash")
	assert.Contains(t, methods, "debit")

	require.NoError(t, repo.AddPaymentMethod(ctx, "revolut"))
	require.NoError(t, repo.AddPaymentMethod(ctx, "revolut")) // idempotent

	methods, err = repo.ListPaymentMethods(ctx)
	require.NoError(t, err)
	assert.Contains(t, methods, "revolut")
}
