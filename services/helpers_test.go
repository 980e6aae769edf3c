package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hostel-pg/database"
	"hostel-pg/models"
	"hostel-pg/storage"
	"hostel-pg/utils"
)

const (
	aadhaarA = "234567890124"
	aadhaarB = "498765432102"
)

type testEnv struct {
	db        *gorm.DB
	cal       Calendar
	store     *storage.MemoryStore
	tokens    *utils.TokenIssuer
	rooms     *RoomService
	tenants   *TenantService
	billing   *BillingService
	ledger    *LedgerService
	documents *DocumentService
	auth      *AuthService
	audit     *AuditService
	admin     Actor
}

// fixedDay pins "now" to 10:00 UTC on the given day. Each call moves the
// clock a millisecond forward so generated keys stay distinct.
func fixedDay(day string) func() time.Time {
	now := models.MustParseDate(day).Time().Add(10 * time.Hour)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, utils.InitializeEncryption("0123456789abcdef0123456789abcdef"))

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tokens, err := utils.NewTokenIssuer("test-secret-that-is-long-enough!", time.Hour)
	require.NoError(t, err)

	log := zerolog.Nop()
	cal := Calendar{Now: fixedDay("2024-02-09"), Location: time.UTC}
	store := storage.NewMemoryStore("https://files.test")
	env := &testEnv{
		db:        db,
		cal:       cal,
		store:     store,
		tokens:    tokens,
		rooms:     NewRoomService(db, log, 4),
		tenants:   NewTenantService(db, log, cal),
		billing:   NewBillingService(db, log, cal),
		ledger:    NewLedgerService(db, log, cal),
		documents: NewDocumentService(db, store, log, PhotoLimits{MaxBytes: 250 * 1024, MaxDimension: 1024}, cal),
		auth:      NewAuthService(db, log, tokens, "let-me-in"),
		audit:     NewAuditService(db),
		admin:     Actor{UID: "admin-uid", IPAddress: "127.0.0.1"},
	}
	return env
}

func (e *testEnv) room(t *testing.T, id uint, max, occupancy int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Room{ID: id, MaxTenants: max, Occupancy: occupancy}).Error)
}

func (e *testEnv) roomOccupancy(t *testing.T, id uint) int {
	t.Helper()
	var r models.Room
	require.NoError(t, e.db.First(&r, id).Error)
	return r.Occupancy
}

// tenant inserts a role=user tenant. An Active tenant with a room is
// inserted as-is; callers set the room's occupancy to match.
func (e *testEnv) tenant(t *testing.T, name string, status models.Status, room *uint) *models.Tenant {
	t.Helper()
	tn := &models.Tenant{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Mobile:       "9876543210",
		Role:         models.RoleUser,
		Status:       status,
		RoomNumber:   room,
		RentAmount:   decimal.NewFromInt(4000),
	}
	if status == models.StatusActive {
		start := models.MustParseDate("2024-01-10")
		tn.StartDate = &start
	}
	require.NoError(t, e.db.Create(tn).Error)
	return tn
}

func (e *testEnv) reload(t *testing.T, uid string) *models.Tenant {
	t.Helper()
	got, err := e.tenants.Get(context.Background(), uid)
	require.NoError(t, err)
	return got
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }

func statusPtr(s models.Status) *models.Status { return &s }

func datePtr(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}
