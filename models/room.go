package models

import "time"

// Room capacity lives in max_tennant; 0 <= Occupancy <= MaxTenants always.
type Room struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Type       string    `json:"type"`
	MaxTenants int       `json:"max_tennant" gorm:"column:max_tennant;not null"`
	Occupancy  int       `json:"occupancy" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r Room) Vacancies() int {
	return r.MaxTenants - r.Occupancy
}

func (r Room) Full() bool {
	return r.Occupancy >= r.MaxTenants
}

type CreateRoomRequest struct {
	ID         uint   `json:"id" validate:"required,min=1"`
	Type       string `json:"type" validate:"max=40"`
	MaxTenants int    `json:"max_tennant" validate:"required,min=1"`
}

type CapacityRequest struct {
	MaxTenants int `json:"max_tennant" validate:"required,min=1"`
}
