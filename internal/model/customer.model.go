package model

import (
	"strings"
	"time"
)

// Customer is a shop customer buying on credit. Balance is signed minor
// units: positive means outstanding debt, negative means the customer is in
// credit. The balance always equals the sum of the customer's non-reversed
// transactions.
type Customer struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullname"`
	Phone     string    `json:"phone"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

type CustomerCreateRequest struct {
	FullName string `json:"fullname"`
	Phone    string `json:"phone"`
}

func (r CustomerCreateRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return ErrEmptyFullName
	}
	return nil
}

// CustomerMatch is the slim search-result shape the adapter renders as a
// pick list.
type CustomerMatch struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullname"`
}

// CustomerSummary is the customer card: identity, totals per transaction
// kind and the most recent transactions.
type CustomerSummary struct {
	Customer     Customer       `json:"customer"`
	TotalDebits  int64          `json:"total_debits"`
	TotalCredits int64          `json:"total_credits"`
	Recent       []*Transaction `json:"recent"`
}
