package observability

import (
	"github.com/danmuck/wirecall/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logger from the environment and tags it
// with app. Output goes to stderr; stdout may be carrying wire traffic.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
