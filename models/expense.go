package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ExpenseCategories = []string{
	"Electricity",
	"Plumbing",
	"Sweeper",
	"Carpenter",
	"House Tax",
	"Electricity Bill",
	"Painting",
	"Others",
}

func IsExpenseCategory(c string) bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Expense struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Category    string          `json:"category" gorm:"not null"`
	Item        string          `json:"item" gorm:"not null"`
	Date        Date            `json:"date" gorm:"not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	UID         string          `json:"uid" gorm:"type:varchar(36);not null;index"`
	AddedByName string          `json:"added_by_name,omitempty" gorm:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type CreateExpenseRequest struct {
	Category string          `json:"category" validate:"required"`
	Item     string          `json:"item" validate:"required,max=200"`
	Date     Date            `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
}
