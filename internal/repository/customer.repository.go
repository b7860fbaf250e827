package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrDuplicateName      = errors.New("customer name already exists")
	ErrCustomerExists     = errors.New("customer id already exists")
	ErrConcurrentUpdate   = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	var count int64
	err := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("fullname = ?", c.FullName).
		Count(&count).
		Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	entity := toCustomerEntity(c)
	entity.ID = 0
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCustomerModel(entity), nil
}

// Restore re-inserts a previously deleted customer verbatim, original id
// and created_at included. Used only by the undo engine.
func (r *CustomerRepository) Restore(ctx context.Context, c *model.Customer) error {
	var count int64
	err := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", c.ID).
		Count(&count).
		Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCustomerExists
	}

	return r.Write(ctx).WithContext(ctx).Create(toCustomerEntity(c)).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return toCustomerModel(&entity), nil
}

// Search matches customers whose fullname or phone contains the query as a
// substring, ascending by fullname. The caller normalizes the query first.
func (r *CustomerRepository) Search(ctx context.Context, query string, limit int) ([]*model.CustomerMatch, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var entities []*CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("fullname LIKE ? OR phone LIKE ?", "%"+query+"%", "%"+query+"%").
		Order("fullname ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	matches := make([]*model.CustomerMatch, len(entities))
	for i, e := range entities {
		matches[i] = &model.CustomerMatch{ID: e.ID, FullName: e.FullName}
	}
	return matches, nil
}

// UpdateName sets a new fullname and returns the previous one.
func (r *CustomerRepository) UpdateName(ctx context.Context, id int64, name string) (string, error) {
	var entity CustomerEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCustomerNotFound
		}
		return "", err
	}

	var count int64
	err = r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("fullname = ? AND id <> ?", name, id).
		Count(&count).
		Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrDuplicateName
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", id).
		Update("fullname", name)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrConcurrentUpdate
	}

	return entity.FullName, nil
}

// UpdatePhone sets a new phone and returns the previous one.
func (r *CustomerRepository) UpdatePhone(ctx context.Context, id int64, phone string) (string, error) {
	var entity CustomerEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCustomerNotFound
		}
		return "", err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", id).
		Update("phone", phone)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrConcurrentUpdate
	}

	return entity.Phone, nil
}

// AdjustBalance applies a signed delta to the customer's balance with
// automatic retry. The row is locked first so the delta lands on a
// consistent value; negative balances are allowed (the customer is in
// credit).
func (r *CustomerRepository) AdjustBalance(ctx context.Context, customerID int64, delta int64) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := r.adjustBalanceAttempt(ctx, customerID, delta)

		if err == nil {
			return nil
		}

		if errors.Is(err, ErrCustomerNotFound) {
			return err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt) // 2ms, 4ms, 8ms
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxRetries+1)
}

func (r *CustomerRepository) adjustBalanceAttempt(ctx context.Context, customerID int64, delta int64) error {
	var entity CustomerEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", customerID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("id = ?", customerID).
		Update("balance", gorm.Expr("balance + ?", delta))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}

func (r *CustomerRepository) GetBalance(ctx context.Context, customerID int64) (int64, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("balance").
		Where("id = ?", customerID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}

	return entity.Balance, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&CustomerEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
