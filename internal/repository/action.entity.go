package repository

import (
	"encoding/json"
	"time"

	"github.com/bash586/paytrackbot/internal/model"
)

type ActionEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	AdminID    int64     `db:"admin_id"    gorm:"column:admin_id;not null;index"`
	CustomerID int64     `db:"customer_id" gorm:"column:customer_id;not null;index"`
	Type       string    `db:"type"        gorm:"column:type;not null"`
	Payload    string    `db:"payload"     gorm:"column:payload;not null"`
	Reversed   bool      `db:"reversed"    gorm:"column:reversed;not null;default:false"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;not null;autoCreateTime;index"`
}

func (ActionEntity) TableName() string {
	return "actions"
}

// ActionArchiveEntity mirrors ActionEntity; old rows are moved here by the
// archiver and keep their original ids.
type ActionArchiveEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;column:id"`
	AdminID    int64     `db:"admin_id"    gorm:"column:admin_id;not null"`
	CustomerID int64     `db:"customer_id" gorm:"column:customer_id;not null"`
	Type       string    `db:"type"        gorm:"column:type;not null"`
	Payload    string    `db:"payload"     gorm:"column:payload;not null"`
	Reversed   bool      `db:"reversed"    gorm:"column:reversed;not null"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;not null"`
}

func (ActionArchiveEntity) TableName() string {
	return "action_archive"
}

func toActionEntity(m *model.Action) (*ActionEntity, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, err
	}
	return &ActionEntity{
		ID:         m.ID,
		AdminID:    m.AdminID,
		CustomerID: m.CustomerID,
		Type:       string(m.Type),
		Payload:    string(raw),
		Reversed:   m.Reversed,
		CreatedAt:  m.CreatedAt,
	}, nil
}

func toActionModel(e *ActionEntity) (*model.Action, error) {
	if e == nil {
		return nil, nil
	}
	payload, err := model.DecodePayload(model.ActionType(e.Type), []byte(e.Payload))
	if err != nil {
		return nil, err
	}
	return &model.Action{
		ID:         e.ID,
		AdminID:    e.AdminID,
		CustomerID: e.CustomerID,
		Type:       model.ActionType(e.Type),
		Payload:    payload,
		Reversed:   e.Reversed,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func toActionModels(entities []*ActionEntity) ([]*model.Action, error) {
	if entities == nil {
		return nil, nil
	}
	models := make([]*model.Action, len(entities))
	for i, e := range entities {
		m, err := toActionModel(e)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}
	return models, nil
}

func toArchiveEntity(e *ActionEntity) *ActionArchiveEntity {
	return &ActionArchiveEntity{
		ID:         e.ID,
		AdminID:    e.AdminID,
		CustomerID: e.CustomerID,
		Type:       e.Type,
		Payload:    e.Payload,
		Reversed:   e.Reversed,
		CreatedAt:  e.CreatedAt,
	}
}
