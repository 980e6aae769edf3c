package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hostel-pg/models"
	"hostel-pg/utils"
)

// LedgerService records expenses and aggregates money in and out.
type LedgerService struct {
	db  *gorm.DB
	log zerolog.Logger
	cal Calendar
}

func NewLedgerService(db *gorm.DB, log zerolog.Logger, cal Calendar) *LedgerService {
	return &LedgerService{db: db, log: log.With().Str("service", "ledger").Logger(), cal: cal}
}

func (s *LedgerService) Range(from, to models.Date) (Range, error) {
	return s.cal.MonthRange(from, to)
}

func (s *LedgerService) CreateExpense(ctx context.Context, actor Actor, req models.CreateExpenseRequest) (*models.Expense, error) {
	fields := map[string]string{}
	if !models.IsExpenseCategory(req.Category) {
		fields["category"] = "unknown expense category"
	}
	if utils.SanitizeString(req.Item) == "" {
		fields["item"] = "item is required"
	}
	if req.Date.IsZero() {
		fields["date"] = "date is required"
	}
	if !req.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	e := models.Expense{
		Category: req.Category,
		Item:     utils.SanitizeString(req.Item),
		Date:     req.Date,
		Amount:   req.Amount,
		UID:      actor.UID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&e).Error; err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		return recordAudit(tx, actor, "CREATE", "expense", e.ID, e.Category,
			map[string]interface{}{"amount": e.Amount.String(), "date": e.Date.String()})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExpenses returns expenses dated within r, newest first, with the name
// of whoever logged them.
func (s *LedgerService) ListExpenses(ctx context.Context, r Range) ([]models.Expense, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Expense
	if err := db.Where("date >= ? AND date <= ?", r.From, r.To).
		Order("date DESC").Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	names, err := s.names(db, expenseUIDs(rows))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AddedByName = names[rows[i].UID]
	}
	return rows, nil
}

func expenseUIDs(rows []models.Expense) []string {
	seen := map[string]bool{}
	var uids []string
	for _, e := range rows {
		if !seen[e.UID] {
			seen[e.UID] = true
			uids = append(uids, e.UID)
		}
	}
	return uids
}

func (s *LedgerService) names(db *gorm.DB, uids []string) (map[string]string, error) {
	tenants, err := tenantsByUID(db, uids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(tenants))
	for uid, t := range tenants {
		out[uid] = t.Name
	}
	return out, nil
}

type DailyAmount struct {
	Date   models.Date     `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type ContributorTotal struct {
	UID   string          `json:"uid"`
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type Summary struct {
	From          models.Date        `json:"from"`
	To            models.Date        `json:"to"`
	Total         decimal.Decimal    `json:"total"`
	Count         int                `json:"count"`
	ByContributor []ContributorTotal `json:"by_contributor,omitempty"`
	Daily         []DailyAmount      `json:"daily"`
}

type entry struct {
	day         models.Date
	amount      decimal.Decimal
	contributor string
}

// summarize totals entries, per contributor and per day. Every day of r
// appears in the series, zero when nothing happened.
func summarize(r Range, entries []entry, names map[string]string) Summary {
	out := Summary{From: r.From, To: r.To, Total: decimal.Zero, Count: len(entries)}

	perDay := make(map[models.Date]decimal.Decimal)
	perContributor := make(map[string]decimal.Decimal)
	for _, e := range entries {
		out.Total = out.Total.Add(e.amount)
		perDay[e.day] = perDay[e.day].Add(e.amount)
		if e.contributor != "" {
			perContributor[e.contributor] = perContributor[e.contributor].Add(e.amount)
		}
	}

	for _, day := range r.Days() {
		amount, ok := perDay[day]
		if !ok {
			amount = decimal.Zero
		}
		out.Daily = append(out.Daily, DailyAmount{Date: day, Amount: amount})
	}

	for uid, total := range perContributor {
		name := names[uid]
		if name == "" {
			name = uid
		}
		out.ByContributor = append(out.ByContributor, ContributorTotal{UID: uid, Name: name, Total: total})
	}
	sort.Slice(out.ByContributor, func(i, j int) bool {
		a, b := out.ByContributor[i], out.ByContributor[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Name < b.Name
	})
	return out
}

func (s *LedgerService) ExpenseSummary(ctx context.Context, r Range) (*Summary, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Expense
	if err := db.Select("date", "amount", "uid").Where("date >= ? AND date <= ?", r.From, r.To).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	entries := make([]entry, len(rows))
	for i, e := range rows {
		entries[i] = entry{day: e.Date, amount: e.Amount, contributor: e.UID}
	}
	names, err := s.names(db, expenseUIDs(rows))
	if err != nil {
		return nil, err
	}
	summary := summarize(r, entries, names)
	return &summary, nil
}

// PaymentSummary totals paid periods by the day they were paid.
func (s *LedgerService) PaymentSummary(ctx context.Context, r Range) (*Summary, error) {
	var rows []models.Payment
	if err := s.db.WithContext(ctx).Select("paid_on", "amount").
		Where("paid = ? AND paid_on >= ? AND paid_on <= ?", true, r.From, r.To).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	entries := make([]entry, 0, len(rows))
	for _, p := range rows {
		if p.PaidOn == nil {
			continue
		}
		entries = append(entries, entry{day: *p.PaidOn, amount: p.Amount})
	}
	summary := summarize(r, entries, nil)
	return &summary, nil
}
