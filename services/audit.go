package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hostel-pg/models"
)

// Actor identifies who triggered a change and from where.
type Actor struct {
	UID       string
	IPAddress string
	UserAgent string
}

func recordAudit(tx *gorm.DB, actor Actor, action, resource, resourceID, details string, changes map[string]interface{}) error {
	entry := models.AuditLog{
		ActorUID:   actor.UID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
	if len(changes) > 0 {
		entry.Changes = datatypes.JSONMap(changes)
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

type AuditPage struct {
	Logs  []models.AuditLog `json:"logs"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *AuditService) List(ctx context.Context, resource string, page, limit int) (*AuditPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count audit logs: %w", err)
	}
	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return &AuditPage{Logs: logs, Total: total, Page: page, Limit: limit}, nil
}
