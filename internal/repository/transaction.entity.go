package repository

import (
	"time"

	"github.com/bash586/paytrackbot/internal/model"
)

type TransactionEntity struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	CustomerID  int64     `db:"customer_id" gorm:"column:customer_id;not null;index"`
	Amount      int64     `db:"amount"      gorm:"column:amount;not null"`
	Kind        string    `db:"kind"        gorm:"column:kind;not null"`
	Description string    `db:"description" gorm:"column:description"`
	CreatedAt   time.Time `db:"created_at"  gorm:"column:created_at;not null;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		Amount:      m.Amount,
		Kind:        string(m.Kind),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:          e.ID,
		CustomerID:  e.CustomerID,
		Amount:      e.Amount,
		Kind:        model.TransactionKind(e.Kind),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
