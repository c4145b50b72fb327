package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/file"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/memory"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/postgresql"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"memory", "file", "postgres", "postgresql", "redis", "rediss"}

// NewPersistence opens the instance store named by the URL scheme. An empty
// URL or "memory://" keeps instances in process memory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.InstanceStore, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger = logger.With("persistence", provider)

	switch provider {
	case "memory":
		logger.InfoContext(ctx, "Using in-memory instance store")

		return memory.NewPersistence(), nil
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}

		return store, nil
	case "redis", "rediss":
		store, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	if databaseURL == "" {
		return "memory"
	}

	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
