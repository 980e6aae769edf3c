package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-pg/models"
)

func (e *testEnv) activeTenantWithFirstPeriod(t *testing.T) (*models.Tenant, *models.Payment) {
	t.Helper()
	e.room(t, 1, 2, 1)
	tn := e.tenant(t, "Meera", models.StatusActive, uintPtr(1))
	p, err := e.billing.InsertInitialPeriod(context.Background(), e.admin, tn.UID)
	require.NoError(t, err)
	return tn, p
}

func TestInsertInitialPeriod(t *testing.T) {
	env := newTestEnv(t)
	tn, p := env.activeTenantWithFirstPeriod(t)

	assert.Equal(t, tn.UID, p.UID)
	assert.Equal(t, "2024-01-10", p.BillingStartDate.String())
	assert.Equal(t, "2024-02-10", p.BillingEndDate.String())
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(4000)))
	assert.False(t, p.Paid)
	assert.Nil(t, p.PaidOn)

	_, err := env.billing.InsertInitialPeriod(context.Background(), env.admin, tn.UID)
	assert.True(t, errors.Is(err, ErrConflict), "only when no periods exist")
}

func TestInsertInitialPeriodRequiresActive(t *testing.T) {
	env := newTestEnv(t)
	tn := env.tenant(t, "Meera", models.StatusPending, nil)

	_, err := env.billing.InsertInitialPeriod(context.Background(), env.admin, tn.UID)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = env.billing.InsertInitialPeriod(context.Background(), env.admin, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkPaidRollsForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, p := env.activeTenantWithFirstPeriod(t)

	res, err := env.billing.MarkPaid(ctx, env.admin, p.PayID)
	require.NoError(t, err)
	assert.True(t, res.Payment.Paid)
	require.NotNil(t, res.Payment.PaidOn)
	assert.Equal(t, "2024-02-09", res.Payment.PaidOn.String())

	require.NotNil(t, res.Next)
	assert.Equal(t, "2024-02-10", res.Next.BillingStartDate.String())
	assert.Equal(t, "2024-03-10", res.Next.BillingEndDate.String())
	assert.True(t, res.Next.Amount.Equal(p.Amount))
	assert.False(t, res.Next.Paid)

	rows, err := env.billing.ListForTenant(ctx, tn.UID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 31, rows[0].Days)
	assert.Equal(t, 29, rows[1].Days)

	_, err = env.billing.MarkPaid(ctx, env.admin, p.PayID)
	assert.True(t, errors.Is(err, ErrConflict))
	rows, err = env.billing.ListForTenant(ctx, tn.UID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "paying twice must not append again")
}

func TestMarkPaidOlderPeriodDoesNotAppend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, first := env.activeTenantWithFirstPeriod(t)

	res, err := env.billing.MarkPaid(ctx, env.admin, first.PayID)
	require.NoError(t, err)
	second := res.Next

	// un-pay the first row directly to simulate a late correction
	require.NoError(t, env.db.Model(&models.Payment{}).Where("pay_id = ?", first.PayID).
		Updates(map[string]interface{}{"paid": false, "paid_on": nil}).Error)

	res, err = env.billing.MarkPaid(ctx, env.admin, first.PayID)
	require.NoError(t, err)
	assert.Nil(t, res.Next, "a later period exists")

	res, err = env.billing.MarkPaid(ctx, env.admin, second.PayID)
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	assert.Equal(t, "2024-03-10", res.Next.BillingStartDate.String())

	rows, err := env.billing.ListForTenant(ctx, tn.UID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestEditPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, p := env.activeTenantWithFirstPeriod(t)

	_, err := env.billing.EditPeriod(ctx, env.admin, p.PayID, models.EditPaymentRequest{
		BillingStartDate: models.MustParseDate("2024-02-10"),
		BillingEndDate:   models.MustParseDate("2024-01-10"),
		Amount:           decimal.NewFromInt(4000),
	})
	assert.True(t, errors.Is(err, ErrValidation), "end before start")

	_, err = env.billing.EditPeriod(ctx, env.admin, p.PayID, models.EditPaymentRequest{
		BillingStartDate: models.MustParseDate("2024-01-10"),
		BillingEndDate:   models.MustParseDate("2024-02-10"),
	})
	assert.True(t, errors.Is(err, ErrValidation), "zero amount")

	res, err := env.billing.EditPeriod(ctx, env.admin, p.PayID, models.EditPaymentRequest{
		BillingStartDate: models.MustParseDate("2024-01-12"),
		BillingEndDate:   models.MustParseDate("2024-02-12"),
		Amount:           decimal.NewFromInt(4500),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	assert.False(t, res.Payment.Paid)

	res, err = env.billing.EditPeriod(ctx, env.admin, p.PayID, models.EditPaymentRequest{
		BillingStartDate: models.MustParseDate("2024-01-12"),
		BillingEndDate:   models.MustParseDate("2024-02-12"),
		Amount:           decimal.NewFromInt(4500),
		Paid:             true,
	})
	require.NoError(t, err)
	assert.True(t, res.Payment.Paid)
	require.NotNil(t, res.Next, "paying through an edit rolls forward")
	assert.Equal(t, "2024-02-12", res.Next.BillingStartDate.String())
	assert.True(t, res.Next.Amount.Equal(decimal.NewFromInt(4500)))

	_, err = env.billing.EditPeriod(ctx, env.admin, p.PayID, models.EditPaymentRequest{
		BillingStartDate: models.MustParseDate("2024-01-12"),
		BillingEndDate:   models.MustParseDate("2024-02-12"),
		Amount:           decimal.NewFromInt(4500),
		Paid:             false,
	})
	assert.True(t, errors.Is(err, ErrValidation), "paid rows stay paid")

	rows, err := env.billing.ListForTenant(ctx, tn.UID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Paid)
}

func TestDeletePeriodTouchesOnlyThatRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, p := env.activeTenantWithFirstPeriod(t)
	res, err := env.billing.MarkPaid(ctx, env.admin, p.PayID)
	require.NoError(t, err)

	require.NoError(t, env.billing.DeletePeriod(ctx, env.admin, res.Next.PayID))

	rows, err := env.billing.ListForTenant(ctx, tn.UID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, p.PayID, rows[0].PayID)
	assert.Equal(t, 1, env.roomOccupancy(t, 1))
	assert.Equal(t, models.StatusActive, env.reload(t, tn.UID).Status)

	err = env.billing.DeletePeriod(ctx, env.admin, res.Next.PayID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn, p := env.activeTenantWithFirstPeriod(t)
	_, err := env.billing.MarkPaid(ctx, env.admin, p.PayID)
	require.NoError(t, err)

	rng, err := env.cal.MonthRange(models.Date{}, models.Date{})
	require.NoError(t, err)
	rows, err := env.billing.ListPaid(ctx, rng)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Meera", rows[0].TenantName)
	require.NotNil(t, rows[0].RoomNumber)
	assert.Equal(t, uint(1), *rows[0].RoomNumber)
	assert.Equal(t, tn.UID, rows[0].UID)

	rows, err = env.billing.ListPaid(ctx, Range{From: models.MustParseDate("2024-01-01"), To: models.MustParseDate("2024-01-31")})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOutstandingDues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.room(t, 2, 2, 2)
	_, p := env.activeTenantWithFirstPeriod(t)
	env.tenant(t, "Nisha", models.StatusActive, uintPtr(2))

	dues, err := env.billing.OutstandingDues(ctx)
	require.NoError(t, err)
	require.Len(t, dues, 2)
	var missing, unpaid int
	for _, d := range dues {
		if d.Missing() {
			missing++
			assert.Equal(t, "Nisha", d.Name)
		}
		if d.Unpaid() {
			unpaid++
		}
	}
	assert.Equal(t, 1, missing)
	assert.Equal(t, 1, unpaid)

	_, err = env.billing.MarkPaid(ctx, env.admin, p.PayID)
	require.NoError(t, err)
	dues, err = env.billing.OutstandingDues(ctx)
	require.NoError(t, err)
	require.Len(t, dues, 1)
	assert.True(t, dues[0].Missing())
}
