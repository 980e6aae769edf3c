package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	ActorUID   string            `json:"actor_uid" gorm:"type:varchar(36);index"`
	Action     string            `json:"action" gorm:"not null"`
	Resource   string            `json:"resource" gorm:"not null;index"`
	ResourceID string            `json:"resource_id" gorm:"index"`
	Details    string            `json:"details"`
	Changes    datatypes.JSONMap `json:"changes,omitempty"`
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	CreatedAt  time.Time         `json:"created_at"`
}
