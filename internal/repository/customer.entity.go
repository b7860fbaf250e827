package repository

import (
	"time"

	"github.com/bash586/paytrackbot/internal/model"
)

type CustomerEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	FullName  string    `db:"fullname"   gorm:"column:fullname;not null;index"`
	Phone     string    `db:"phone"      gorm:"column:phone"`
	Balance   int64     `db:"balance"    gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;not null;autoCreateTime"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:        m.ID,
		FullName:  m.FullName,
		Phone:     m.Phone,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:        e.ID,
		FullName:  e.FullName,
		Phone:     e.Phone,
		Balance:   e.Balance,
		CreatedAt: e.CreatedAt,
	}
}
