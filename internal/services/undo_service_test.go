package services

import (
	"context"
	"testing"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AddCustomer → AddTransaction → Undo restores balance, removes the
// transaction and marks the action reversed.
func TestUndoService_TransactionRoundTrip(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "john", Phone: "0590000000"})
	require.NoError(t, err)

	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{
		CustomerID:  customer.ID,
		Amount:      50,
		Description: "groceries",
	})
	require.NoError(t, err)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, int64(50), summary.Customer.Balance)

	result, err := f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ActionAddTransaction, result.Action.Type)
	assert.True(t, result.Action.Reversed)

	summary, err = f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Customer.Balance)

	history, err := f.ledger.ListHistory(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUndoService_DoubleUndoFails(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "twice"})
	require.NoError(t, err)
	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 100})
	require.NoError(t, err)

	result, err := f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)

	_, err = f.undo.Undo(ctx, 1, result.Action.ID)
	assert.ErrorIs(t, err, ErrState)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Customer.Balance)
}

// DeleteCustomer → Undo resurrects the customer verbatim, original id,
// name, phone and created_at included.
func TestUndoService_DeleteCustomerRoundTrip(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "phoenix", Phone: "0591112222"})
	require.NoError(t, err)

	require.NoError(t, f.ledger.DeleteCustomer(ctx, 1, customer.ID))

	result, err := f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ActionDeleteCustomer, result.Action.Type)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, summary.Customer.ID)
	assert.Equal(t, "phoenix", summary.Customer.FullName)
	assert.Equal(t, "0591112222", summary.Customer.Phone)
	assert.Equal(t, int64(0), summary.Customer.Balance)
	assert.Equal(t, customer.CreatedAt.UTC(), summary.Customer.CreatedAt.UTC())
}

// Two transactions for the same customer; undo only reverses the most
// recent one.
func TestUndoService_OnlyMostRecentReversed(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "double"})
	require.NoError(t, err)

	first, err := f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 30})
	require.NoError(t, err)
	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 70})
	require.NoError(t, err)

	_, err = f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)

	history, err := f.ledger.ListHistory(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), summary.Customer.Balance)
}

func TestUndoService_SettleRoundTrip(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "payer"})
	require.NoError(t, err)
	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 500})
	require.NoError(t, err)
	_, err = f.ledger.Settle(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 200})
	require.NoError(t, err)

	result, err := f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSettle, result.Action.Type)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), summary.Customer.Balance)
}

func TestUndoService_RenameRoundTrip(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "before"})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Rename(ctx, 1, customer.ID, "after"))

	_, err = f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", summary.Customer.FullName)
}

func TestUndoService_ChangePhoneRoundTrip(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "caller", Phone: "111"})
	require.NoError(t, err)
	require.NoError(t, f.ledger.ChangePhone(ctx, 1, customer.ID, "222"))

	_, err = f.undo.Undo(ctx, 1, 0)
	require.NoError(t, err)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "111", summary.Customer.Phone)
}

func TestUndoService_AddCustomerUndo(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	t.Run("untouched customer is removed", func(t *testing.T) {
		customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "ephemeral"})
		require.NoError(t, err)

		_, err = f.undo.Undo(ctx, 1, 0)
		require.NoError(t, err)

		_, err = f.ledger.Summary(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("customer with transactions conflicts", func(t *testing.T) {
		customer, err := f.ledger.AddCustomer(ctx, 2, model.CustomerCreateRequest{FullName: "active"})
		require.NoError(t, err)
		_, err = f.ledger.AddTransaction(ctx, 2, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 10})
		require.NoError(t, err)

		addAction := findAction(t, f, customer.ID, model.ActionAddCustomer)
		_, err = f.undo.Undo(ctx, 2, addAction.ID)
		assert.ErrorIs(t, err, ErrConflict)

		// The failed undo must leave the action unreversed.
		got, err := f.actions.GetByID(ctx, addAction.ID)
		require.NoError(t, err)
		assert.False(t, got.Reversed)
	})
}

func TestUndoService_ArbitraryIDConflicts(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "layered"})
	require.NoError(t, err)

	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 100})
	require.NoError(t, err)
	firstTxnAction := findAction(t, f, customer.ID, model.ActionAddTransaction)

	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 200})
	require.NoError(t, err)

	_, err = f.undo.Undo(ctx, 1, firstTxnAction.ID)
	assert.ErrorIs(t, err, ErrConflict)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), summary.Customer.Balance)
}

func TestUndoService_AdminScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("per-admin scope only sees own actions", func(t *testing.T) {
		f := setupLedger(t, false)

		alice, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "alice's customer"})
		require.NoError(t, err)
		bob, err := f.ledger.AddCustomer(ctx, 2, model.CustomerCreateRequest{FullName: "bob's customer"})
		require.NoError(t, err)

		// Admin 1 undoes: must hit their own add, not admin 2's.
		result, err := f.undo.Undo(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, result.Action.CustomerID)

		_, err = f.ledger.Summary(ctx, bob.ID)
		assert.NoError(t, err)
	})

	t.Run("nothing to undo for an idle admin", func(t *testing.T) {
		f := setupLedger(t, false)
		_, err := f.undo.Undo(ctx, 42, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("global scope picks the newest action regardless of admin", func(t *testing.T) {
		f := setupLedger(t, true)

		_, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "first"})
		require.NoError(t, err)
		second, err := f.ledger.AddCustomer(ctx, 2, model.CustomerCreateRequest{FullName: "second"})
		require.NoError(t, err)

		result, err := f.undo.Undo(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, second.ID, result.Action.CustomerID)
	})
}

func TestUndoService_UnknownActionID(t *testing.T) {
	f := setupLedger(t, false)

	_, err := f.undo.Undo(context.Background(), 1, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func findAction(t *testing.T, f *ledgerFixture, customerID int64, actionType model.ActionType) *model.Action {
	t.Helper()
	actions, err := f.ledger.ListRecent(context.Background(), 100)
	require.NoError(t, err)
	for _, a := range actions {
		if a.CustomerID == customerID && a.Type == actionType {
			return a
		}
	}
	t.Fatalf("no %s action for customer %d", actionType, customerID)
	return nil
}
