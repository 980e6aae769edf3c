package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-pg/models"
	"hostel-pg/utils"
)

type AuthService struct {
	db        *gorm.DB
	log       zerolog.Logger
	tokens    *utils.TokenIssuer
	adminCode string
}

func NewAuthService(db *gorm.DB, log zerolog.Logger, tokens *utils.TokenIssuer, adminCode string) *AuthService {
	return &AuthService{db: db, log: log.With().Str("service", "auth").Logger(), tokens: tokens, adminCode: adminCode}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register signs a new tenant up as Pending. A matching admin code makes
// the account an admin instead.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Tenant, error) {
	role := models.RoleUser
	if req.AdminCode != "" {
		if req.AdminCode != s.adminCode {
			return nil, invalid("admin_code", "invalid admin code")
		}
		role = models.RoleAdmin
	}
	if req.Aadhaar != "" && !utils.ValidateAadhaar(req.Aadhaar) {
		return nil, invalid("aadhaar", "Aadhaar number is invalid")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	t := models.Tenant{
		Name:          utils.SanitizeString(req.Name),
		Email:         normalizeEmail(req.Email),
		PasswordHash:  hash,
		Mobile:        req.Mobile,
		Aadhaar:       req.Aadhaar,
		Occupation:    utils.SanitizeString(req.Occupation),
		Institution:   utils.SanitizeString(req.Institution),
		TermsAccepted: req.TermsAccepted,
		Role:          role,
		Status:        models.StatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Tenant{}).Unscoped().Where("email = ?", t.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflictf("an account with this email already exists")
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		return recordAudit(tx, Actor{UID: t.UID}, "REGISTER", "tenant", t.UID, "account created",
			map[string]interface{}{"role": string(role)})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("uid", t.UID).Str("role", string(role)).Msg("account registered")
	return &t, nil
}

// Login checks the password and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.Tenant, error) {
	var t models.Tenant
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrUnauthorized
	}
	if err != nil {
		return "", nil, fmt.Errorf("load tenant: %w", err)
	}
	if !utils.CheckPasswordHash(req.Password, t.PasswordHash) {
		return "", nil, ErrUnauthorized
	}
	token, err := s.tokens.Generate(t.UID, t.Email, string(t.Role))
	if err != nil {
		return "", nil, err
	}
	return token, &t, nil
}

func (s *AuthService) Refresh(t *models.Tenant) (string, error) {
	return s.tokens.Generate(t.UID, t.Email, string(t.Role))
}

// ForgotPassword issues a reset token for a known email. Delivery is the
// caller's concern; an unknown email returns "" and no error.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	var t models.Tenant
	err := s.db.WithContext(ctx).Select("uid", "email", "password_hash").Where("email = ?", normalizeEmail(email)).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load tenant: %w", err)
	}
	return s.tokens.GenerateReset(t.UID, t.Email, utils.PasswordStamp(t.PasswordHash))
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.ValidateReset(token)
	if err != nil {
		return invalid("token", "reset link is invalid or has expired")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tenant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("uid", "password_hash").
			Where("uid = ? AND email = ?", claims.UID, claims.Email).First(&t).Error
		if err != nil {
			return notFoundOr(err, "tenant")
		}
		// a redeemed token no longer matches the stored hash
		if !utils.StampMatches(claims.Stamp, t.PasswordHash) {
			return invalid("token", "reset link has already been used")
		}
		res := tx.Model(&models.Tenant{}).Where("uid = ? AND password_hash = ?", t.UID, t.PasswordHash).Update("password_hash", hash)
		if res.Error != nil {
			return fmt.Errorf("update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalid("token", "reset link has already been used")
		}
		return recordAudit(tx, Actor{UID: claims.UID}, "RESET_PASSWORD", "tenant", claims.UID, "password reset", nil)
	})
}

// CreateAdmin creates or promotes an admin account; used by the CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, name string) (*models.Tenant, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	email = normalizeEmail(email)

	var t models.Tenant
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&t).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			t = models.Tenant{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin, Status: models.StatusPending, TermsAccepted: true}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
		case err != nil:
			return err
		default:
			t.Role = models.RoleAdmin
			t.PasswordHash = hash
			if name != "" {
				t.Name = name
			}
			if err := tx.Save(&t).Error; err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
		}
		return recordAudit(tx, Actor{UID: t.UID, UserAgent: "cli"}, "CREATE_ADMIN", "tenant", t.UID, "admin account provisioned", nil)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
