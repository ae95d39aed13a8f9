package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/database"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend        string
	SQLitePath     string
	DatabaseURL    string
	MigrationsPath string
	Debug          bool
}

// Open builds the configured backend. For postgres it connects through GORM and applies
// pending migrations first.
func Open(ctx context.Context, s Settings, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch s.Backend {
	case "", BackendMemory:
		log.Info("using in-memory store; data is lost on exit")
		return NewMemory(WithLogger(log)), nil

	case BackendSQLite:
		st, err := OpenSQLite(ctx, s.SQLitePath, WithLogger(log))
		if err != nil {
			return nil, err
		}
		log.Info("using sqlite store", zap.String("path", st.Path()))
		return st, nil

	case BackendPostgres:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		db, err := database.Connect(s.DatabaseURL, s.Debug)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := database.RunMigrations(s.DatabaseURL, s.MigrationsPath, log); err != nil {
			return nil, err
		}
		log.Info("using postgres store")
		return NewPostgres(db, s.DatabaseURL, WithLogger(log)), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", s.Backend)
	}
}
