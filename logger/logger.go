package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a console writer at debug
// level; everything else gets JSON at info level.
func New(environment string) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "hostel-pg").Logger()

	if environment == "development" {
		return logger.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}
