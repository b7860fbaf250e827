package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActionType string

const (
	ActionAddCustomer    ActionType = "add_customer"
	ActionAddTransaction ActionType = "add_transaction"
	ActionSettle         ActionType = "settle"
	ActionRename         ActionType = "rename_customer"
	ActionChangePhone    ActionType = "change_phone"
	ActionDeleteCustomer ActionType = "delete_customer"
)

// Action is one entry in the admin-scoped audit log. Every mutating
// operation appends exactly one action, in the same database transaction as
// the mutation itself. The payload carries what the undo engine needs to
// invert the action, nothing more. Once reversed the action stays in the
// log but can never be undone again.
type Action struct {
	ID         int64         `json:"id"`
	AdminID    int64         `json:"admin_id"`
	CustomerID int64         `json:"customer_id"`
	Type       ActionType    `json:"type"`
	Payload    ActionPayload `json:"payload"`
	Reversed   bool          `json:"reversed"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (Action) TableName() string { return "actions" }

// ActionPayload is a closed union keyed by the action type. Each variant
// carries exactly the fields its inverse needs.
type ActionPayload interface {
	isActionPayload()
}

// AddCustomerPayload records what add_customer created, so undo can verify
// the customer is still untouched before deleting it.
type AddCustomerPayload struct {
	FullName  string    `json:"fullname"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionPayload is shared by add_transaction and settle.
type TransactionPayload struct {
	TransactionID int64     `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type RenamePayload struct {
	OldFullName string `json:"old_fullname"`
}

type ChangePhonePayload struct {
	OldPhone string `json:"old_phone"`
}

// DeleteCustomerPayload snapshots the entire customer and every transaction
// it had, so undo can resurrect the record verbatim, original id included.
type DeleteCustomerPayload struct {
	Customer     Customer       `json:"customer"`
	Transactions []*Transaction `json:"transactions"`
}

func (AddCustomerPayload) isActionPayload()    {}
func (TransactionPayload) isActionPayload()    {}
func (RenamePayload) isActionPayload()         {}
func (ChangePhonePayload) isActionPayload()    {}
func (DeleteCustomerPayload) isActionPayload() {}

// DecodePayload unmarshals a stored payload into the variant matching the
// action type.
func DecodePayload(t ActionType, raw []byte) (ActionPayload, error) {
	switch t {
	case ActionAddCustomer:
		var p AddCustomerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionAddTransaction, ActionSettle:
		var p TransactionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionRename:
		var p RenamePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionChangePhone:
		var p ChangePhonePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionDeleteCustomer:
		var p DeleteCustomerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", t)
	}
}

// ActionEvent is the post-commit notification published to the audit
// stream. The actions table remains the source of truth; the stream is a
// downstream feed only.
type ActionEvent struct {
	ActionID   int64      `json:"action_id"`
	Type       ActionType `json:"type"`
	AdminID    int64      `json:"admin_id"`
	CustomerID int64      `json:"customer_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
