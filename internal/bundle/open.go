package bundle

import (
	"context"
	"fmt"
	"log"

	"crewbuilder/internal/config"
)

// Open builds the Store selected by cfg.Store. Remote backends are wrapped in
// a CachedStore when cfg.CacheSize > 0. A nil logger means log.Default().
func Open(_ context.Context, cfg config.BundleConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	var (
		s      Store
		remote bool
		err    error
	)
	switch cfg.Store {
	case "memory":
		s = NewMemoryStore()
	case "", "file":
		s, err = NewFileStore(cfg.Dir)
	case "s3":
		s, err = NewS3Store(cfg.S3)
		remote = true
		if err == nil {
			logger.Printf("bundle store: s3 bucket=%s endpoint=%s", cfg.S3.Bucket, cfg.S3.Endpoint)
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("bundle: BUNDLE_DATABASE_URL is required for the postgres store")
		}
		s, err = OpenSQL(Postgres, cfg.DatabaseURL)
		remote = true
	case "sqlite":
		s, err = OpenSQL(SQLite, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("bundle: unknown store %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}
	if remote && cfg.CacheSize > 0 {
		s = NewCachedStore(s, cfg.CacheSize, cfg.CacheTTL)
	}
	return s, nil
}
