package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hostel-pg/config"
	"hostel-pg/database"
	"hostel-pg/handlers"
	"hostel-pg/logger"
	"hostel-pg/middleware"
	"hostel-pg/services"
	"hostel-pg/storage"
	"hostel-pg/utils"
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *gorm.DB
	tokens   *utils.TokenIssuer
	calendar services.Calendar
	services handlers.Services
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Environment)
	if err := config.ValidateConfig(cfg, log); err != nil {
		return nil, err
	}
	if err := utils.InitializeEncryption(cfg.EncryptionKey); err != nil {
		return nil, fmt.Errorf("initialize encryption: %w", err)
	}
	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("initialize jwt: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Initialize(database.Options{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
		Debug:  !cfg.IsProduction(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	store, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	cal := services.Calendar{Location: loc}
	a := &app{cfg: cfg, log: log, db: db, tokens: tokens, calendar: cal}
	a.services = handlers.Services{
		Auth:      services.NewAuthService(db, log, tokens, cfg.AdminCode),
		Tenants:   services.NewTenantService(db, log, cal),
		Rooms:     services.NewRoomService(db, log, cfg.RoomMaxCapacity),
		Billing:   services.NewBillingService(db, log, cal),
		Ledger:    services.NewLedgerService(db, log, cal),
		Documents: services.NewDocumentService(db, store, log, services.PhotoLimits{MaxBytes: cfg.PhotoMaxBytes, MaxDimension: cfg.PhotoMaxDimension}, cal),
		Audit:     services.NewAuditService(db),
	}
	if mem, ok := store.(*storage.MemoryStore); ok {
		a.services.Files = mem
	}
	return a, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.ObjectStore, error) {
	if !cfg.S3Configured() {
		base := "http://localhost:" + cfg.Port + "/files"
		log.Warn().Str("served_at", base).Msg("S3 is not configured; photo ids are kept in memory, served by this process and lost on restart")
		return storage.NewMemoryStore(base), nil
	}
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}
	return store, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// httpHandler wraps the router in the global middleware chain.
func (a *app) httpHandler(limiter *middleware.RateLimiter) http.Handler {
	h := handlers.NewHandlers(a.services, a.tokens, a.cfg, a.log)

	var handler http.Handler = h.Router()
	handler = limiter.Middleware(handler)
	handler = middleware.CORS(a.cfg.CORSOrigins)(handler)
	handler = middleware.RequestLogger(a.log)(handler)
	return handler
}

func (a *app) server(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
