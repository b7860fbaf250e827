package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRepository_AppendAndGet(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	t.Run("round trips the payload", func(t *testing.T) {
		action := &model.Action{
			AdminID:    7,
			CustomerID: 3,
			Type:       model.ActionAddTransaction,
			Payload: model.TransactionPayload{
				TransactionID: 15,
				Amount:        2500,
				Description:   "milk",
				CreatedAt:     time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
			},
		}
		require.NoError(t, repo.Append(ctx, action))
		require.NotZero(t, action.ID)

		got, err := repo.GetByID(ctx, action.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ActionAddTransaction, got.Type)
		assert.False(t, got.Reversed)

		payload, ok := got.Payload.(model.TransactionPayload)
		require.True(t, ok)
		assert.Equal(t, int64(15), payload.TransactionID)
		assert.Equal(t, int64(2500), payload.Amount)
		assert.Equal(t, "milk", payload.Description)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrActionNotFound)
	})
}

func TestActionRepository_LastUnreversed(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	seed := []*ActionEntity{
		{ID: 1, AdminID: 1, CustomerID: 1, Type: "add_customer", Payload: "{}", CreatedAt: base},
		{ID: 2, AdminID: 2, CustomerID: 1, Type: "add_transaction", Payload: "{}", CreatedAt: base.Add(time.Minute)},
		{ID: 3, AdminID: 1, CustomerID: 2, Type: "settle", Payload: "{}", Reversed: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range seed {
		require.NoError(t, db.Write(ctx).Create(a).Error)
	}

	t.Run("scoped to admin", func(t *testing.T) {
		got, err := repo.LastUnreversed(ctx, 1, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})

	t.Run("global scope picks newest unreversed", func(t *testing.T) {
		got, err := repo.LastUnreversed(ctx, 1, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ID)
	})

	t.Run("no unreversed actions", func(t *testing.T) {
		_, err := repo.LastUnreversed(ctx, 99, false)
		assert.ErrorIs(t, err, ErrActionNotFound)
	})
}

func TestActionRepository_MarkReversed(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Write(ctx).Create(&ActionEntity{
		ID: 1, AdminID: 1, CustomerID: 1, Type: "settle", Payload: "{}",
	}).Error)

	t.Run("first mark succeeds", func(t *testing.T) {
		require.NoError(t, repo.MarkReversed(ctx, 1))

		got, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.Reversed)
	})

	t.Run("second mark fails", func(t *testing.T) {
		err := repo.MarkReversed(ctx, 1)
		assert.ErrorIs(t, err, ErrActionAlreadyReversed)
	})

	t.Run("missing action", func(t *testing.T) {
		err := repo.MarkReversed(ctx, 555)
		assert.ErrorIs(t, err, ErrActionNotFound)
	})
}

func TestActionRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		entity := &ActionEntity{
			ID:         int64(i),
			AdminID:    1,
			CustomerID: 1,
			Type:       "add_transaction",
			Payload:    "{}",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Write(ctx).Create(entity).Error)
	}

	t.Run("newest first, capped at n", func(t *testing.T) {
		actions, err := repo.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, actions, 3)
		for i := 1; i < len(actions); i++ {
			prev, cur := actions[i-1], actions[i]
			assert.True(t, prev.CreatedAt.After(cur.CreatedAt) ||
				(prev.CreatedAt.Equal(cur.CreatedAt) && prev.ID > cur.ID))
		}
		assert.Equal(t, int64(5), actions[0].ID)
	})

	t.Run("zero limit falls back to default", func(t *testing.T) {
		actions, err := repo.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, actions, 5)
	})
}

func TestActionRepository_CountLaterForCustomer(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	seed := []*ActionEntity{
		{ID: 1, AdminID: 1, CustomerID: 1, Type: "add_transaction", Payload: "{}"},
		{ID: 2, AdminID: 1, CustomerID: 1, Type: "add_transaction", Payload: "{}"},
		{ID: 3, AdminID: 1, CustomerID: 2, Type: "add_transaction", Payload: "{}"},
		{ID: 4, AdminID: 1, CustomerID: 1, Type: "settle", Payload: "{}", Reversed: true},
	}
	for _, a := range seed {
		require.NoError(t, db.Write(ctx).Create(a).Error)
	}

	count, err := repo.CountLaterForCustomer(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountLaterForCustomer(ctx, 1, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestActionRepository_Archive(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewActionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []*ActionEntity{
		{ID: 1, AdminID: 1, CustomerID: 1, Type: "add_customer", Payload: "{}", CreatedAt: now.AddDate(0, 0, -45)},
		{ID: 2, AdminID: 1, CustomerID: 1, Type: "add_transaction", Payload: "{}", CreatedAt: now.AddDate(0, 0, -31)},
		{ID: 3, AdminID: 1, CustomerID: 1, Type: "settle", Payload: "{}", CreatedAt: now.AddDate(0, 0, -2)},
	}
	for _, a := range seed {
		require.NoError(t, db.Write(ctx).Create(a).Error)
	}

	t.Run("moves rows older than cutoff", func(t *testing.T) {
		moved, err := repo.Archive(ctx, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Equal(t, int64(2), moved)

		var live, archived int64
		require.NoError(t, db.Read(ctx).Model(&ActionEntity{}).Count(&live).Error)
		require.NoError(t, db.Read(ctx).Model(&ActionArchiveEntity{}).Count(&archived).Error)
		assert.Equal(t, int64(1), live)
		assert.Equal(t, int64(2), archived)

		var row ActionArchiveEntity
		require.NoError(t, db.Read(ctx).First(&row, "id = ?", 1).Error)
		assert.Equal(t, "add_customer", row.Type)
	})

	t.Run("nothing to move", func(t *testing.T) {
		moved, err := repo.Archive(ctx, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Zero(t, moved)
	})
}
