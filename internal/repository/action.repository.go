package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
	"github.com/bash586/paytrackbot/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrActionNotFound        = errors.New("action not found")
	ErrActionAlreadyReversed = errors.New("action already reversed")
)

type ActionRepository struct {
	*pg.DB
}

func NewActionRepository(db *pg.DB) *ActionRepository {
	return &ActionRepository{DB: db}
}

// Append persists a new history row and fills in the generated id and
// creation time.
func (r *ActionRepository) Append(ctx context.Context, action *model.Action) error {
	entity, err := toActionEntity(action)
	if err != nil {
		return err
	}
	entity.ID = 0

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return err
	}

	action.ID = entity.ID
	action.CreatedAt = entity.CreatedAt
	return nil
}

func (r *ActionRepository) GetByID(ctx context.Context, id int64) (*model.Action, error) {
	var entity ActionEntity
	err := r.Read(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActionNotFound
	}
	if err != nil {
		return nil, err
	}
	return toActionModel(&entity)
}

// LastUnreversed returns the most recent action that has not been undone.
// When global is false the lookup is limited to rows recorded by adminID.
func (r *ActionRepository) LastUnreversed(ctx context.Context, adminID int64, global bool) (*model.Action, error) {
	q := r.Read(ctx).Where("reversed = ?", false)
	if !global {
		q = q.Where("admin_id = ?", adminID)
	}

	var entity ActionEntity
	err := q.Order("created_at DESC, id DESC").First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActionNotFound
	}
	if err != nil {
		return nil, err
	}
	return toActionModel(&entity)
}

// MarkReversed flips the reversed flag. The guard on the current flag value
// makes concurrent undo attempts lose cleanly instead of double-applying.
func (r *ActionRepository) MarkReversed(ctx context.Context, id int64) error {
	res := r.Write(ctx).
		Model(&ActionEntity{}).
		Where("id = ? AND reversed = ?", id, false).
		Update("reversed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.Read(ctx).Model(&ActionEntity{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrActionNotFound
		}
		return ErrActionAlreadyReversed
	}
	return nil
}

func (r *ActionRepository) ListRecent(ctx context.Context, limit int) ([]*model.Action, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	var entities []*ActionEntity
	err := r.Read(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toActionModels(entities)
}

// CountLaterForCustomer counts unreversed actions for the customer recorded
// after the given action id. Undo of an arbitrary action is only safe when
// nothing newer touched the same customer.
func (r *ActionRepository) CountLaterForCustomer(ctx context.Context, customerID, afterID int64) (int64, error) {
	var count int64
	err := r.Read(ctx).
		Model(&ActionEntity{}).
		Where("customer_id = ? AND id > ? AND reversed = ?", customerID, afterID, false).
		Count(&count).Error
	return count, err
}

// Archive moves actions created before the cutoff into the archive table and
// returns how many rows were moved.
func (r *ActionRepository) Archive(ctx context.Context, olderThan time.Time) (int64, error) {
	var moved int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		var entities []*ActionEntity
		if err := r.Write(ctx).
			Where("created_at < ?", olderThan).
			Order("id ASC").
			Find(&entities).Error; err != nil {
			return err
		}
		if len(entities) == 0 {
			return nil
		}

		archived := make([]*ActionArchiveEntity, len(entities))
		ids := make([]int64, len(entities))
		for i, e := range entities {
			archived[i] = toArchiveEntity(e)
			ids[i] = e.ID
		}
		if err := r.Write(ctx).Create(archived).Error; err != nil {
			return err
		}
		res := r.Write(ctx).Delete(&ActionEntity{}, "id IN ?", ids)
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected
		return nil
	})
	return moved, err
}
