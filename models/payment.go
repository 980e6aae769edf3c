package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is one billing period [BillingStartDate, BillingEndDate) for a
// tenant. PaidOn is set when the period is marked paid.
type Payment struct {
	PayID            string          `json:"pay_id" gorm:"primaryKey;type:varchar(36)"`
	UID              string          `json:"uid" gorm:"type:varchar(36);not null;index"`
	AddedBy          string          `json:"added_by,omitempty" gorm:"type:varchar(36)"`
	BillingStartDate Date            `json:"billing_start_date" gorm:"not null;index"`
	BillingEndDate   Date            `json:"billing_end_date" gorm:"not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Paid             bool            `json:"paid" gorm:"not null;default:false"`
	PaidOn           *Date           `json:"paid_on" gorm:"index"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PayID == "" {
		p.PayID = uuid.NewString()
	}
	return nil
}

func (p Payment) Days() int {
	return p.BillingStartDate.DaysUntil(p.BillingEndDate)
}

// Covers reports whether day falls inside [start, end).
func (p Payment) Covers(day Date) bool {
	return !day.Before(p.BillingStartDate) && day.Before(p.BillingEndDate)
}

type PaymentView struct {
	Payment
	Days int `json:"days"`
}

func NewPaymentView(p Payment) PaymentView {
	return PaymentView{Payment: p, Days: p.Days()}
}

// PaidPaymentRow is a paid period joined with its tenant for the payments page.
type PaidPaymentRow struct {
	Payment
	TenantName string `json:"tenant_name"`
	RoomNumber *uint  `json:"room_number"`
}

type EditPaymentRequest struct {
	BillingStartDate Date            `json:"billing_start_date"`
	BillingEndDate   Date            `json:"billing_end_date"`
	Amount           decimal.Decimal `json:"amount"`
	Paid             bool            `json:"paid"`
}
