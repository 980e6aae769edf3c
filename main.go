package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hostel-pg/logger"
)

// loadDotenv reads the given env files. A missing file is only a warning;
// real environment variables win over file entries.
func loadDotenv(log zerolog.Logger, files ...string) error {
	err := godotenv.Load(files...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Strs("files", files).Msg("no .env file; using the process environment")
		return nil
	default:
		return fmt.Errorf("load .env: %w", err)
	}
}

func main() {
	if err := loadDotenv(logger.New(os.Getenv("ENVIRONMENT")), ".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "hostel-pg",
		Short: "Hostel / PG management backend",
	}
	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedRoomsCmd(),
		createAdminCmd(),
		duesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
