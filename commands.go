package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hostel-pg/database"
	"hostel-pg/middleware"
	"hostel-pg/scheduler"
)

func serveCmd() *cobra.Command {
	var withoutScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			limiter := middleware.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
			go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

			if !withoutScheduler {
				reporter := scheduler.NewDuesReporter(a.services.Billing, a.log)
				c, err := reporter.Start(a.cfg.DuesCron, a.calendar.Location)
				if err != nil {
					return err
				}
				defer c.Stop()
			}

			srv := a.server(a.httpHandler(limiter))
			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("port", a.cfg.Port).Str("environment", a.cfg.Environment).Str("db", a.cfg.DBDriver).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.log.Info().Msg("server shut down gracefully")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withoutScheduler, "no-scheduler", false, "do not run the dues reporter")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			// bootstrap already migrated
			a.log.Info().Str("db", a.cfg.DBDriver).Msg("schema is up to date")
			return nil
		},
	}
}

func seedRoomsCmd() *cobra.Command {
	var count, capacity int
	cmd := &cobra.Command{
		Use:   "seed-rooms",
		Short: "Create rooms 1..count with the given capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if capacity > a.cfg.RoomMaxCapacity {
				return fmt.Errorf("capacity %d exceeds ROOM_MAX_CAPACITY %d", capacity, a.cfg.RoomMaxCapacity)
			}
			created, err := database.SeedRooms(a.db, count, capacity)
			if err != nil {
				return err
			}
			a.log.Info().Int64("created", created).Int("requested", count).Msg("rooms seeded")
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of rooms")
	cmd.Flags().IntVar(&capacity, "capacity", 2, "beds per room")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || len(password) < 8 {
				return errors.New("--email and a --password of at least 8 characters are required")
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			t, err := a.services.Auth.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			a.log.Info().Str("uid", t.UID).Str("email", t.Email).Msg("admin ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	return cmd
}

func duesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dues",
		Short: "Log Active tenants whose current period is missing or unpaid, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := scheduler.NewDuesReporter(a.services.Billing, a.log).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "missing: %d, unpaid: %d\n", report.Missing, report.Unpaid)
			return nil
		},
	}
}
