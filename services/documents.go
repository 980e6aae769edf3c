package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-pg/models"
	"hostel-pg/storage"
)

// DocumentService stores a tenant's profile photo and identity proofs.
// Each (tenant, document type) has exactly one current object.
type DocumentService struct {
	db     *gorm.DB
	store  storage.ObjectStore
	log    zerolog.Logger
	limits PhotoLimits
	cal    Calendar
}

func NewDocumentService(db *gorm.DB, store storage.ObjectStore, log zerolog.Logger, limits PhotoLimits, cal Calendar) *DocumentService {
	return &DocumentService{db: db, store: store, log: log.With().Str("service", "documents").Logger(), limits: limits, cal: cal}
}

func documentPrefix(uid string, doc models.DocumentType) string {
	return fmt.Sprintf("photo-ids/%s/%s/", uid, doc)
}

func (s *DocumentService) Get(ctx context.Context, uid string) (*models.PhotoIDs, error) {
	var p models.PhotoIDs
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PhotoIDs{UID: uid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}
	return &p, nil
}

// Upload replaces the tenant's document of the given type. Tenants may
// upload identity proofs only while their status allows it; admins (the
// actor differs from the owner) always may.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, uid string, doc models.DocumentType, data []byte) (*models.PhotoIDs, error) {
	var t models.Tenant
	if err := s.db.WithContext(ctx).Select("uid", "status").Where("uid = ?", uid).First(&t).Error; err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	if actor.UID == uid {
		caps := models.CapabilitiesFor(t.Status)
		if doc.IsIdentity() && !caps.UploadDocuments {
			return nil, fmt.Errorf("%w: identity documents are locked while %s", ErrForbidden, t.Status)
		}
		if !doc.IsIdentity() && !caps.EditProfile {
			return nil, fmt.Errorf("%w: profile is locked while %s", ErrForbidden, t.Status)
		}
	}

	photo, err := normalizePhoto(data, s.limits)
	if err != nil {
		return nil, err
	}

	prefix := documentPrefix(uid, doc)
	old, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	// the new object goes in and the row points at it before the previous
	// ones are removed, so a failure never leaves the row dangling
	key := fmt.Sprintf("%s%s-%s-%d.jpg", prefix, uid, doc, s.cal.now().UnixNano())
	if err := s.store.Put(ctx, key, photo, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	url := s.store.PublicURL(key)

	row := models.PhotoIDs{UID: uid}
	row.Set(doc, url)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{doc.Column(), "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("save photo url: %w", err)
		}
		return recordAudit(tx, actor, "UPLOAD", "photo_ids", uid, string(doc),
			map[string]interface{}{"key": key, "bytes": len(photo)})
	})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn().Err(derr).Str("key", key).Msg("orphaned upload not removed")
		}
		return nil, err
	}

	stale := make([]string, 0, len(old))
	for _, k := range old {
		if k != key {
			stale = append(stale, k)
		}
	}
	// leftovers are cleared by the next upload under the same prefix
	if err := s.store.Delete(ctx, stale...); err != nil {
		s.log.Warn().Err(err).Str("prefix", prefix).Strs("keys", stale).Msg("previous documents not removed")
	}

	s.log.Info().Str("uid", uid).Str("document", string(doc)).Int("bytes", len(photo)).Int("replaced", len(stale)).Msg("document uploaded")
	return s.Get(ctx, uid)
}
