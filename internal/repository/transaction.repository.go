package repository

import (
	"context"
	"errors"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)
	entity.ID = 0

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// Delete removes a transaction and returns it, so the caller can back its
// amount out of the customer's balance in the same database transaction.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if err := r.Write(ctx).WithContext(ctx).Delete(&TransactionEntity{}, entity.ID).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", string(*f.Kind))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at, id"
	if f.Desc {
		order = "created_at DESC, id DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// ListByCustomer returns every transaction of the customer, chronological.
func (r *TransactionRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at, id").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("customer_id = ?", customerID).
		Count(&count).
		Error
	return count, err
}

// SumByKind returns the totals of debit and credit amounts for a customer.
func (r *TransactionRepository) SumByKind(ctx context.Context, customerID int64) (debits int64, credits int64, err error) {
	type row struct {
		Kind  string
		Total int64
	}
	var rows []row
	err = r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("customer_id = ?", customerID).
		Group("kind").
		Scan(&rows).
		Error
	if err != nil {
		return 0, 0, err
	}
	for _, v := range rows {
		switch model.TransactionKind(v.Kind) {
		case model.KindDebit:
			debits = v.Total
		case model.KindCredit:
			credits = v.Total
		}
	}
	return debits, credits, nil
}

// RestoreBatch re-inserts deleted transactions verbatim, ids and
// timestamps included. Used only by the undo engine when resurrecting a
// deleted customer.
func (r *TransactionRepository) RestoreBatch(ctx context.Context, txns []*model.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	entities := make([]*TransactionEntity, len(txns))
	for i, t := range txns {
		entities[i] = toTransactionEntity(t)
	}
	return r.Write(ctx).WithContext(ctx).Create(entities).Error
}

func (r *TransactionRepository) DeleteByCustomer(ctx context.Context, customerID int64) error {
	return r.Write(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&TransactionEntity{}).
		Error
}
