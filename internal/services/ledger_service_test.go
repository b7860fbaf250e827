package services

import (
	"context"
	"testing"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_AddCustomer(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	t.Run("creates with zero balance and logs the action", func(t *testing.T) {
		customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{
			FullName: "  John   DOE ",
			Phone:    "059-000 0000",
		})
		require.NoError(t, err)
		assert.Equal(t, "john doe", customer.FullName)
		assert.Equal(t, "0590000000", customer.Phone)
		assert.Equal(t, int64(0), customer.Balance)

		actions, err := f.ledger.ListRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, model.ActionAddCustomer, actions[0].Type)
		assert.Equal(t, customer.ID, actions[0].CustomerID)
	})

	t.Run("empty name fails validation without logging", func(t *testing.T) {
		_, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "   "})
		assert.ErrorIs(t, err, ErrValidation)

		actions, err := f.ledger.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, actions, 1)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "John Doe"})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestLedgerService_AddTransaction(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "jane doe"})
	require.NoError(t, err)

	t.Run("positive amount adds debt", func(t *testing.T) {
		txn, err := f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{
			CustomerID:  customer.ID,
			Amount:      5000,
			Description: "groceries",
		})
		require.NoError(t, err)
		assert.Equal(t, model.KindDebit, txn.Kind)

		summary, err := f.ledger.Summary(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), summary.Customer.Balance)
	})

	t.Run("zero amount fails validation", func(t *testing.T) {
		_, err := f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{
			CustomerID: customer.ID,
			Amount:     0,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{
			CustomerID: 9999,
			Amount:     100,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLedgerService_Settle(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "debtor"})
	require.NoError(t, err)

	_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{
		CustomerID: customer.ID,
		Amount:     8000,
	})
	require.NoError(t, err)

	t.Run("positive input is stored negated as credit", func(t *testing.T) {
		txn, err := f.ledger.Settle(ctx, 1, model.TransactionCreateRequest{
			CustomerID:  customer.ID,
			Amount:      3000,
			Description: "partial payment",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(-3000), txn.Amount)
		assert.Equal(t, model.KindCredit, txn.Kind)

		summary, err := f.ledger.Summary(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), summary.Customer.Balance)
	})

	t.Run("settle action type is distinct", func(t *testing.T) {
		actions, err := f.ledger.ListRecent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, model.ActionSettle, actions[0].Type)
	})
}

// The balance must equal the signed sum of the customer's transactions
// after any sequence of operations.
func TestLedgerService_BalanceInvariant(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "invariant"})
	require.NoError(t, err)

	amounts := []int64{100, 250, -80, 4000, -1200}
	for _, amount := range amounts {
		if amount > 0 {
			_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: amount})
		} else {
			_, err = f.ledger.Settle(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: amount})
		}
		require.NoError(t, err)

		history, err := f.ledger.ListHistory(ctx, customer.ID)
		require.NoError(t, err)
		var sum int64
		for _, txn := range history {
			sum += txn.Amount
		}

		summary, err := f.ledger.Summary(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, sum, summary.Customer.Balance)
	}
}

func TestLedgerService_DeleteCustomer(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	t.Run("nonzero balance fails precondition and logs nothing", func(t *testing.T) {
		customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "owes money"})
		require.NoError(t, err)
		_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 30})
		require.NoError(t, err)

		before, err := f.ledger.ListRecent(ctx, 100)
		require.NoError(t, err)

		err = f.ledger.DeleteCustomer(ctx, 1, customer.ID)
		assert.ErrorIs(t, err, ErrPrecondition)

		after, err := f.ledger.ListRecent(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, after, len(before))

		summary, err := f.ledger.Summary(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), summary.Customer.Balance)
	})

	t.Run("settled customer is deleted", func(t *testing.T) {
		customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "all square"})
		require.NoError(t, err)

		require.NoError(t, f.ledger.DeleteCustomer(ctx, 1, customer.ID))

		_, err = f.ledger.Summary(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing customer", func(t *testing.T) {
		err := f.ledger.DeleteCustomer(ctx, 1, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLedgerService_Rename(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "old name"})
	require.NoError(t, err)

	t.Run("renames and records the old name", func(t *testing.T) {
		require.NoError(t, f.ledger.Rename(ctx, 1, customer.ID, "New Name"))

		summary, err := f.ledger.Summary(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "new name", summary.Customer.FullName)

		actions, err := f.ledger.ListRecent(ctx, 1)
		require.NoError(t, err)
		payload, ok := actions[0].Payload.(model.RenamePayload)
		require.True(t, ok)
		assert.Equal(t, "old name", payload.OldFullName)
	})

	t.Run("empty name fails validation", func(t *testing.T) {
		err := f.ledger.Rename(ctx, 1, customer.ID, "  ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing customer", func(t *testing.T) {
		err := f.ledger.Rename(ctx, 1, 9999, "whoever")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLedgerService_Search(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	names := []string{"ali karimi", "sara karimi", "reza moradi"}
	for _, name := range names {
		_, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: name})
		require.NoError(t, err)
	}

	t.Run("normalizes the query", func(t *testing.T) {
		matches, err := f.ledger.Search(ctx, "  KARIMI ", 10)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("empty query fails validation", func(t *testing.T) {
		_, err := f.ledger.Search(ctx, "   ", 10)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestLedgerService_Summary(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	customer, err := f.ledger.AddCustomer(ctx, 1, model.CustomerCreateRequest{FullName: "summary case"})
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err = f.ledger.AddTransaction(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 100})
		require.NoError(t, err)
	}
	_, err = f.ledger.Settle(ctx, 1, model.TransactionCreateRequest{CustomerID: customer.ID, Amount: 250})
	require.NoError(t, err)

	summary, err := f.ledger.Summary(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), summary.TotalDebits)
	assert.Equal(t, int64(-250), summary.TotalCredits)
	assert.Equal(t, int64(450), summary.Customer.Balance)
	assert.Len(t, summary.Recent, 5)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

func TestLedgerService_PublishesAfterCommit(t *testing.T) {
	f := setupLedger(t, false)
	ctx := context.Background()

	publisher := new(MockPublisher)
	f.ledger.publisher = publisher

	t.Run("event carries the action identity", func(t *testing.T) {
		publisher.On("PublishJSON", mock.Anything, mock.AnythingOfType("model.ActionEvent"), mock.Anything).
			Return("1-0", nil).Once()

		customer, err := f.ledger.AddCustomer(ctx, 9, model.CustomerCreateRequest{FullName: "published"})
		require.NoError(t, err)

		publisher.AssertExpectations(t)
		event := publisher.Calls[0].Arguments.Get(1).(model.ActionEvent)
		assert.Equal(t, model.ActionAddCustomer, event.Type)
		assert.Equal(t, int64(9), event.AdminID)
		assert.Equal(t, customer.ID, event.CustomerID)
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		publisher.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything).
			Return("", assert.AnError).Once()

		_, err := f.ledger.AddCustomer(ctx, 9, model.CustomerCreateRequest{FullName: "still committed"})
		assert.NoError(t, err)
	})
}
