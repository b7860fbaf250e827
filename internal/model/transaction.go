package model

import "time"

type TransactionKind string

const (
	// KindDebit adds to the customer's debt (a purchase on credit).
	KindDebit TransactionKind = "debit"
	// KindCredit reduces the debt (a settlement payment).
	KindCredit TransactionKind = "credit"
)

// Transaction is one balance-affecting entry in a customer's ledger.
// Amount is signed minor units: positive for new debt, negative for a
// payment. Transactions are immutable; undo removes the row and backs the
// amount out of the balance, it never edits it.
type Transaction struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	Amount      int64           `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

type TransactionCreateRequest struct {
	CustomerID  int64  `json:"customer_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (r TransactionCreateRequest) Validate() error {
	if r.Amount == 0 {
		return ErrZeroAmount
	}
	return nil
}

type TransactionFilter struct {
	CustomerID *int64
	Kind       *TransactionKind
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	Desc       bool
}
