package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-pg/models"
)

type BillingService struct {
	db  *gorm.DB
	log zerolog.Logger
	cal Calendar
}

func NewBillingService(db *gorm.DB, log zerolog.Logger, cal Calendar) *BillingService {
	return &BillingService{db: db, log: log.With().Str("service", "billing").Logger(), cal: cal}
}

// PaymentResult is a written period plus the period appended after it, if
// marking it paid rolled the tenant forward.
type PaymentResult struct {
	Payment models.Payment  `json:"payment"`
	Next    *models.Payment `json:"next,omitempty"`
}

func (s *BillingService) ListForTenant(ctx context.Context, uid string) ([]models.PaymentView, error) {
	var rows []models.Payment
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).
		Order("billing_start_date ASC").Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	views := make([]models.PaymentView, len(rows))
	for i, p := range rows {
		views[i] = models.NewPaymentView(p)
	}
	return views, nil
}

// InsertInitialPeriod seeds the first period of an Active tenant who has
// none: [start_date, start_date + 1 month) at the tenant's rent.
func (s *BillingService) InsertInitialPeriod(ctx context.Context, actor Actor, uid string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tenant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("uid = ?", uid).First(&t).Error; err != nil {
			return notFoundOr(err, "tenant")
		}
		if t.Status != models.StatusActive {
			return invalid("status", "billing starts only for Active tenants")
		}
		if t.StartDate == nil {
			return invalid("start_date", "tenant has no start date")
		}
		if !t.RentAmount.IsPositive() {
			return invalid("rent_amount", "tenant has no rent amount")
		}

		var existing int64
		if err := tx.Model(&models.Payment{}).Where("uid = ?", uid).Count(&existing).Error; err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		if existing > 0 {
			return conflictf("tenant already has %d billing period(s)", existing)
		}

		p = models.Payment{
			UID:              uid,
			AddedBy:          actor.UID,
			BillingStartDate: *t.StartDate,
			BillingEndDate:   t.StartDate.AddMonths(1),
			Amount:           t.RentAmount,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return recordAudit(tx, actor, "CREATE", "payment", p.PayID, "initial billing period",
			map[string]interface{}{"uid": uid, "billing_start_date": p.BillingStartDate.String()})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("uid", uid).Str("pay_id", p.PayID).Msg("initial billing period created")
	return &p, nil
}

// MarkPaid marks an unpaid period paid today. If it is the tenant's latest
// period the next one is appended in the same transaction.
func (s *BillingService) MarkPaid(ctx context.Context, actor Actor, payID string) (*PaymentResult, error) {
	var result PaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPayment(tx, payID)
		if err != nil {
			return err
		}
		if p.Paid {
			return conflictf("billing period %s is already paid", payID)
		}
		next, err := s.markPaidTx(tx, actor, p)
		if err != nil {
			return err
		}
		result = PaymentResult{Payment: *p, Next: next}
		return recordAudit(tx, actor, "PAY", "payment", payID, "billing period marked paid", paidChanges(p, next))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("pay_id", payID).Bool("rolled_forward", result.Next != nil).Msg("billing period paid")
	return &result, nil
}

func lockPayment(tx *gorm.DB, payID string) (*models.Payment, error) {
	var p models.Payment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("pay_id = ?", payID).First(&p).Error; err != nil {
		return nil, notFoundOr(err, "billing period")
	}
	return &p, nil
}

func (s *BillingService) markPaidTx(tx *gorm.DB, actor Actor, p *models.Payment) (*models.Payment, error) {
	today := s.cal.Today()
	p.Paid = true
	p.PaidOn = &today
	if err := tx.Save(p).Error; err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	var later int64
	if err := tx.Model(&models.Payment{}).
		Where("uid = ? AND pay_id <> ? AND billing_start_date > ?", p.UID, p.PayID, p.BillingStartDate).
		Count(&later).Error; err != nil {
		return nil, fmt.Errorf("count later periods: %w", err)
	}
	if later > 0 {
		return nil, nil
	}

	nextStart := p.BillingEndDate
	var taken int64
	if err := tx.Model(&models.Payment{}).
		Where("uid = ? AND billing_start_date = ?", p.UID, nextStart).
		Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check next period: %w", err)
	}
	if taken > 0 {
		return nil, nil
	}

	next := models.Payment{
		UID:              p.UID,
		AddedBy:          actor.UID,
		BillingStartDate: nextStart,
		BillingEndDate:   nextStart.AddMonths(1),
		Amount:           p.Amount,
	}
	if err := tx.Create(&next).Error; err != nil {
		return nil, fmt.Errorf("append next period: %w", err)
	}
	return &next, nil
}

func paidChanges(p, next *models.Payment) map[string]interface{} {
	changes := map[string]interface{}{"paid": true, "paid_on": p.PaidOn.String()}
	if next != nil {
		changes["next_pay_id"] = next.PayID
		changes["next_billing_start_date"] = next.BillingStartDate.String()
	}
	return changes
}

// EditPeriod rewrites a period's dates and amount. A paid period stays paid;
// setting paid on an unpaid one behaves like MarkPaid.
func (s *BillingService) EditPeriod(ctx context.Context, actor Actor, payID string, req models.EditPaymentRequest) (*PaymentResult, error) {
	if err := checkPeriod(req); err != nil {
		return nil, err
	}

	var result PaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPayment(tx, payID)
		if err != nil {
			return err
		}
		if p.Paid && !req.Paid {
			return invalid("paid", "a paid billing period cannot be marked unpaid")
		}

		wasPaid := p.Paid
		p.BillingStartDate = req.BillingStartDate
		p.BillingEndDate = req.BillingEndDate
		p.Amount = req.Amount

		var next *models.Payment
		if !wasPaid && req.Paid {
			if next, err = s.markPaidTx(tx, actor, p); err != nil {
				return err
			}
		} else if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		result = PaymentResult{Payment: *p, Next: next}
		changes := map[string]interface{}{
			"billing_start_date": p.BillingStartDate.String(),
			"billing_end_date":   p.BillingEndDate.String(),
			"amount":             p.Amount.String(),
			"paid":               p.Paid,
		}
		return recordAudit(tx, actor, "UPDATE", "payment", payID, "billing period edited", changes)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func checkPeriod(req models.EditPaymentRequest) error {
	fields := map[string]string{}
	if req.BillingStartDate.IsZero() {
		fields["billing_start_date"] = "billing_start_date is required"
	}
	if req.BillingEndDate.IsZero() {
		fields["billing_end_date"] = "billing_end_date is required"
	}
	if len(fields) == 0 && !req.BillingStartDate.Before(req.BillingEndDate) {
		fields["billing_end_date"] = "billing end date must be after the start date"
	}
	if !req.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DeletePeriod removes exactly one period. Occupancy and other periods are
// untouched.
func (s *BillingService) DeletePeriod(ctx context.Context, actor Actor, payID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("pay_id = ?", payID).Delete(&models.Payment{})
		if res.Error != nil {
			return fmt.Errorf("delete payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("billing period")
		}
		return recordAudit(tx, actor, "DELETE", "payment", payID, "billing period deleted", nil)
	})
}

// ListPaid returns paid periods whose paid_on falls in r, newest first,
// with the tenant's name and room.
func (s *BillingService) ListPaid(ctx context.Context, r Range) ([]models.PaidPaymentRow, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Payment
	if err := db.Where("paid = ? AND paid_on >= ? AND paid_on <= ?", true, r.From, r.To).
		Order("paid_on DESC").Order("billing_start_date DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list paid payments: %w", err)
	}

	tenants, err := tenantsByUID(db, paymentUIDs(rows))
	if err != nil {
		return nil, err
	}
	out := make([]models.PaidPaymentRow, len(rows))
	for i, p := range rows {
		out[i] = models.PaidPaymentRow{Payment: p}
		if t, ok := tenants[p.UID]; ok {
			out[i].TenantName = t.Name
			out[i].RoomNumber = t.RoomNumber
		}
	}
	return out, nil
}

func paymentUIDs(rows []models.Payment) []string {
	seen := make(map[string]struct{}, len(rows))
	var uids []string
	for _, p := range rows {
		if _, ok := seen[p.UID]; !ok {
			seen[p.UID] = struct{}{}
			uids = append(uids, p.UID)
		}
	}
	return uids
}

// tenantsByUID loads names and rooms only; the sealed columns stay unread.
func tenantsByUID(db *gorm.DB, uids []string) (map[string]models.Tenant, error) {
	out := make(map[string]models.Tenant, len(uids))
	if len(uids) == 0 {
		return out, nil
	}
	var tenants []models.Tenant
	if err := db.Unscoped().Select("uid", "name", "room_number", "status").Where("uid IN ?", uids).Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}
	for _, t := range tenants {
		out[t.UID] = t
	}
	return out, nil
}

// Dues is the state of one Active tenant's current period.
type Dues struct {
	UID        string          `json:"uid"`
	Name       string          `json:"name"`
	RoomNumber *uint           `json:"room_number"`
	Current    *models.Payment `json:"current"`
}

func (d Dues) Missing() bool { return d.Current == nil }
func (d Dues) Unpaid() bool  { return d.Current != nil && !d.Current.Paid }

// OutstandingDues lists Active tenants whose period covering today is
// missing or unpaid.
func (s *BillingService) OutstandingDues(ctx context.Context) ([]Dues, error) {
	db := s.db.WithContext(ctx)

	var tenants []models.Tenant
	if err := db.Select("uid", "name", "room_number").
		Where("status = ? AND role = ?", models.StatusActive, models.RoleUser).
		Order("room_number ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	if len(tenants) == 0 {
		return nil, nil
	}
	uids := make([]string, len(tenants))
	for i, t := range tenants {
		uids[i] = t.UID
	}
	current, err := currentPeriods(db, uids, s.cal.Today())
	if err != nil {
		return nil, err
	}

	var out []Dues
	for _, t := range tenants {
		d := Dues{UID: t.UID, Name: t.Name, RoomNumber: t.RoomNumber, Current: current[t.UID]}
		if d.Missing() || d.Unpaid() {
			out = append(out, d)
		}
	}
	return out, nil
}
