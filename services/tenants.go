package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-pg/models"
	"hostel-pg/utils"
)

type TenantService struct {
	db  *gorm.DB
	log zerolog.Logger
	cal Calendar
}

func NewTenantService(db *gorm.DB, log zerolog.Logger, cal Calendar) *TenantService {
	return &TenantService{db: db, log: log.With().Str("service", "tenants").Logger(), cal: cal}
}

// TenantView is a tenant with their photos and the billing period that
// covers today, if any.
type TenantView struct {
	models.Tenant
	Photos        *models.PhotoIDs    `json:"photos"`
	CurrentPeriod *models.Payment     `json:"current_period"`
	Capabilities  models.Capabilities `json:"capabilities"`
}

func (s *TenantService) Get(ctx context.Context, uid string) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&t).Error; err != nil {
		return nil, notFoundOr(err, "tenant")
	}
	return &t, nil
}

// LoadSession is the route guard's lookup: role and status always come from
// the store, never from the token alone.
func (s *TenantService) LoadSession(ctx context.Context, uid string) (*models.Tenant, error) {
	return s.Get(ctx, uid)
}

func (s *TenantService) View(ctx context.Context, uid string) (*TenantView, error) {
	t, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	views, err := s.decorate(ctx, []models.Tenant{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns role=user tenants, optionally filtered by status, ordered by
// room number with roomless tenants last on every driver.
func (s *TenantService) List(ctx context.Context, status models.Status) ([]TenantView, error) {
	q := s.db.WithContext(ctx).Where("role = ?", models.RoleUser)
	if status != "" {
		if !status.Valid() {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
		}
		q = q.Where("status = ?", status)
	}
	var tenants []models.Tenant
	if err := q.Order("room_number IS NULL").Order("room_number ASC").Order("name ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return s.decorate(ctx, tenants)
}

func (s *TenantService) decorate(ctx context.Context, tenants []models.Tenant) ([]TenantView, error) {
	views := make([]TenantView, len(tenants))
	if len(tenants) == 0 {
		return views, nil
	}
	uids := make([]string, len(tenants))
	for i, t := range tenants {
		uids[i] = t.UID
	}

	db := s.db.WithContext(ctx)
	var photos []models.PhotoIDs
	if err := db.Where("uid IN ?", uids).Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}
	photoByUID := make(map[string]*models.PhotoIDs, len(photos))
	for i := range photos {
		photoByUID[photos[i].UID] = &photos[i]
	}

	current, err := currentPeriods(db, uids, s.cal.Today())
	if err != nil {
		return nil, err
	}
	for i, t := range tenants {
		views[i] = TenantView{
			Tenant:        t,
			Photos:        photoByUID[t.UID],
			CurrentPeriod: current[t.UID],
			Capabilities:  models.CapabilitiesFor(t.Status),
		}
	}
	return views, nil
}

// currentPeriods finds, per tenant, the period with start <= today < end.
func currentPeriods(db *gorm.DB, uids []string, today models.Date) (map[string]*models.Payment, error) {
	var rows []models.Payment
	if err := db.Where("uid IN ? AND billing_start_date <= ? AND billing_end_date > ?", uids, today, today).
		Order("billing_start_date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load current periods: %w", err)
	}
	out := make(map[string]*models.Payment, len(rows))
	for i := range rows {
		out[rows[i].UID] = &rows[i]
	}
	return out, nil
}

type occupancyChange struct {
	Room  uint
	Delta int
}

// occupancyPlan lists the counter moves a tenant transition needs. The
// increment comes first so a full target room fails before anything is
// released.
func occupancyPlan(before, after *models.Tenant) []occupancyChange {
	oldRoom, newRoom := before.ActiveRoom(), after.ActiveRoom()
	switch {
	case oldRoom == nil && newRoom == nil:
		return nil
	case oldRoom == nil:
		return []occupancyChange{{Room: *newRoom, Delta: 1}}
	case newRoom == nil:
		return []occupancyChange{{Room: *oldRoom, Delta: -1}}
	case *oldRoom == *newRoom:
		return nil
	default:
		return []occupancyChange{{Room: *newRoom, Delta: 1}, {Room: *oldRoom, Delta: -1}}
	}
}

// UpdateTenant applies an admin edit. Everything happens in one
// transaction: the tenant row, any occupancy moves and the audit entry
// commit together or not at all.
func (s *TenantService) UpdateTenant(ctx context.Context, actor Actor, uid string, req models.TenantUpdateRequest) (*models.Tenant, error) {
	if req.Aadhaar != nil && *req.Aadhaar != "" && !utils.ValidateAadhaar(*req.Aadhaar) {
		return nil, invalid("aadhaar", "Aadhaar number is invalid")
	}
	if req.RentAmount != nil && req.RentAmount.IsNegative() {
		return nil, invalid("rent_amount", "rent cannot be negative")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", *req.Status))
	}

	var next models.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("uid = ?", uid).First(&current).Error; err != nil {
			return notFoundOr(err, "tenant")
		}

		next = current
		applyTenantUpdate(&next, req)
		if next.Status != models.StatusActive {
			next.RoomNumber = nil
		}
		// a returning tenant starts a new stay
		if current.Status != models.StatusActive && next.Status == models.StatusActive && req.EndDate == nil {
			next.EndDate = nil
		}
		if err := s.checkTransition(&next); err != nil {
			return err
		}

		for _, change := range occupancyPlan(&current, &next) {
			if change.Delta > 0 {
				if err := roomExists(tx, change.Room); err != nil {
					return err
				}
			}
			if err := adjustOccupancy(tx, change.Room, change.Delta); err != nil {
				return err
			}
		}

		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("save tenant: %w", err)
		}
		return recordAudit(tx, actor, "UPDATE", "tenant", uid, "tenant updated", tenantChanges(&current, &next))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("uid", uid).Str("actor", actor.UID).Str("status", string(next.Status)).Msg("tenant updated")
	return &next, nil
}

func applyTenantUpdate(t *models.Tenant, req models.TenantUpdateRequest) {
	if req.Name != nil {
		t.Name = utils.SanitizeString(*req.Name)
	}
	if req.Mobile != nil {
		t.Mobile = *req.Mobile
	}
	if req.Aadhaar != nil {
		t.Aadhaar = *req.Aadhaar
	}
	if req.Occupation != nil {
		t.Occupation = utils.SanitizeString(*req.Occupation)
	}
	if req.Institution != nil {
		t.Institution = utils.SanitizeString(*req.Institution)
	}
	if req.RoomNumber != nil {
		room := *req.RoomNumber
		t.RoomNumber = &room
	}
	if req.RentAmount != nil {
		t.RentAmount = *req.RentAmount
	}
	if req.StartDate != nil {
		t.StartDate = dateOrNil(*req.StartDate)
	}
	if req.EndDate != nil {
		t.EndDate = dateOrNil(*req.EndDate)
	}
	if req.MobileVerified != nil {
		t.MobileVerified = *req.MobileVerified
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
}

func dateOrNil(d models.Date) *models.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

func (s *TenantService) checkTransition(t *models.Tenant) error {
	switch t.Status {
	case models.StatusActive:
		if t.RoomNumber == nil {
			return invalid("room_number", "an Active tenant needs a room")
		}
		if t.StartDate == nil {
			return invalid("start_date", "an Active tenant needs a start date")
		}
	case models.StatusDeparted:
		if t.EndDate == nil {
			today := s.cal.Today()
			t.EndDate = &today
		}
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return invalid("end_date", "end date is before start date")
	}
	return nil
}

func roomExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Room{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return invalid("room_number", fmt.Sprintf("room %d does not exist", id))
	}
	return nil
}

func tenantChanges(before, after *models.Tenant) map[string]interface{} {
	changes := map[string]interface{}{}
	diff := func(key string, a, b interface{}) {
		if a != b {
			changes[key] = b
		}
	}
	diff("name", before.Name, after.Name)
	diff("mobile", before.Mobile, after.Mobile)
	diff("occupation", before.Occupation, after.Occupation)
	diff("institution", before.Institution, after.Institution)
	diff("status", string(before.Status), string(after.Status))
	diff("mobile_verified", before.MobileVerified, after.MobileVerified)
	diff("room_number", uintString(before.RoomNumber), uintString(after.RoomNumber))
	diff("start_date", dateString(before.StartDate), dateString(after.StartDate))
	diff("end_date", dateString(before.EndDate), dateString(after.EndDate))
	if !before.RentAmount.Equal(after.RentAmount) {
		changes["rent_amount"] = after.RentAmount.String()
	}
	if before.Aadhaar != after.Aadhaar {
		// never write the number itself into the log
		changes["aadhaar"] = "updated"
	}
	return changes
}

func uintString(v *uint) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// UpdateProfile is the tenant's own edit of their contact details.
func (s *TenantService) UpdateProfile(ctx context.Context, actor Actor, req models.ProfileUpdateRequest) (*models.Tenant, error) {
	if req.Aadhaar != "" && !utils.ValidateAadhaar(req.Aadhaar) {
		return nil, invalid("aadhaar", "Aadhaar number is invalid")
	}

	var next models.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("uid = ?", actor.UID).First(&current).Error; err != nil {
			return notFoundOr(err, "tenant")
		}
		if !models.CapabilitiesFor(current.Status).EditProfile {
			return fmt.Errorf("%w: profile is locked while %s", ErrForbidden, current.Status)
		}

		next = current
		next.Name = utils.SanitizeString(req.Name)
		next.Mobile = req.Mobile
		next.Occupation = utils.SanitizeString(req.Occupation)
		next.Institution = utils.SanitizeString(req.Institution)
		if req.Aadhaar != "" {
			next.Aadhaar = req.Aadhaar
		}
		if next.Mobile != current.Mobile {
			next.MobileVerified = false
		}
		if err := tx.Save(&next).Error; err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return recordAudit(tx, actor, "UPDATE", "tenant", actor.UID, "profile updated", tenantChanges(&current, &next))
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SubmitForApproval moves a Pending tenant to Awaiting Approval once both
// Aadhaar photos are on file.
func (s *TenantService) SubmitForApproval(ctx context.Context, actor Actor) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("uid = ?", actor.UID).First(&t).Error; err != nil {
			return notFoundOr(err, "tenant")
		}
		if !models.CapabilitiesFor(t.Status).SubmitForApproval {
			return conflictf("cannot submit for approval while %s", t.Status)
		}

		var photos models.PhotoIDs
		err := tx.Where("uid = ?", actor.UID).First(&photos).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load photos: %w", err)
		}
		if !photos.HasAadhaar() {
			return invalid("documents", "upload the front and back of your Aadhaar card first")
		}

		t.Status = models.StatusAwaitingApproval
		if err := tx.Model(&t).Update("status", t.Status).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return recordAudit(tx, actor, "SUBMIT", "tenant", actor.UID, "submitted for approval",
			map[string]interface{}{"status": string(models.StatusAwaitingApproval)})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("uid", actor.UID).Msg("tenant submitted for approval")
	return &t, nil
}
