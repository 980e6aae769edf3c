package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"hostel-pg/utils"
)

func init() {
	schema.RegisterSerializer("sealed", utils.SealedSerializer{})
}

type Status string

const (
	StatusPending          Status = "Pending"
	StatusAwaitingApproval Status = "Awaiting Approval"
	StatusActive           Status = "Active"
	StatusDeparted         Status = "Departed"
)

var Statuses = []Status{StatusPending, StatusAwaitingApproval, StatusActive, StatusDeparted}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Tenant is both the login identity and the resident record. RoomNumber is
// set only while Status is Active.
type Tenant struct {
	UID            string          `json:"uid" gorm:"primaryKey;type:varchar(36)"`
	Name           string          `json:"name" gorm:"not null"`
	Email          string          `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string          `json:"-" gorm:"not null"`
	Mobile         string          `json:"mobile"`
	Aadhaar        string          `json:"aadhaar" gorm:"serializer:sealed"`
	Occupation     string          `json:"occupation"`
	Institution    string          `json:"institution"`
	RoomNumber     *uint           `json:"room_number" gorm:"index"`
	RentAmount     decimal.Decimal `json:"rent_amount" gorm:"type:decimal(12,2);not null;default:0"`
	StartDate      *Date           `json:"start_date"`
	EndDate        *Date           `json:"end_date"`
	MobileVerified bool            `json:"mobile_verified" gorm:"not null;default:false"`
	TermsAccepted  bool            `json:"terms_accepted" gorm:"not null;default:false"`
	Role           Role            `json:"role" gorm:"type:varchar(10);not null;default:user"`
	Status         Status          `json:"status" gorm:"type:varchar(32);not null;default:Pending;index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	return nil
}

func (t *Tenant) IsAdmin() bool {
	return t.Role == RoleAdmin
}

// ActiveRoom is the room the tenant currently counts against, if any.
func (t *Tenant) ActiveRoom() *uint {
	if t.Status != StatusActive || t.RoomNumber == nil {
		return nil
	}
	return t.RoomNumber
}

type RegisterRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	Name          string `json:"name" validate:"required,max=80,personname"`
	Mobile        string `json:"mobile" validate:"required,mobile"`
	Aadhaar       string `json:"aadhaar" validate:"omitempty,aadhaar"`
	Occupation    string `json:"occupation" validate:"max=80"`
	Institution   string `json:"institution" validate:"max=100"`
	TermsAccepted bool   `json:"terms_accepted" validate:"eq=true"`
	AdminCode     string `json:"admin_code,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	Tenant       Tenant       `json:"tenant"`
	Capabilities Capabilities `json:"capabilities"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ProfileUpdateRequest is what a tenant may change about themselves.
type ProfileUpdateRequest struct {
	Name        string `json:"name" validate:"required,max=80,personname"`
	Mobile      string `json:"mobile" validate:"required,mobile"`
	Aadhaar     string `json:"aadhaar" validate:"omitempty,aadhaar"`
	Occupation  string `json:"occupation" validate:"max=80"`
	Institution string `json:"institution" validate:"max=100"`
}

// TenantUpdateRequest is the admin edit. Nil fields are left unchanged.
type TenantUpdateRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=80,personname"`
	Mobile         *string          `json:"mobile" validate:"omitempty,mobile"`
	Aadhaar        *string          `json:"aadhaar" validate:"omitempty,len=12,numeric"`
	Occupation     *string          `json:"occupation" validate:"omitempty,max=80"`
	Institution    *string          `json:"institution" validate:"omitempty,max=100"`
	RoomNumber     *uint            `json:"room_number"`
	RentAmount     *decimal.Decimal `json:"rent_amount"`
	StartDate      *Date            `json:"start_date"`
	EndDate        *Date            `json:"end_date"`
	MobileVerified *bool            `json:"mobile_verified"`
	Status         *Status          `json:"status" validate:"omitempty,oneof=Pending 'Awaiting Approval' Active Departed"`
}
