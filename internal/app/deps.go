package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/config"
	"github.com/aora/backend/internal/db"
	"github.com/aora/backend/internal/gateway"
	"github.com/aora/backend/internal/handlers"
	"github.com/aora/backend/internal/middleware"
	"github.com/aora/backend/internal/repositories"
	"github.com/aora/backend/internal/selfhost"
	"github.com/aora/backend/internal/storage"
)

// cleanupFunc releases resources acquired while wiring dependencies.
type cleanupFunc func()

// buildDependencies wires the configured backend driver behind the gateway
// and returns the collaborators used by the HTTP handlers.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	var (
		services gateway.Services
		cleanup  cleanupFunc = func() {}
		err      error
	)

	switch cfg.Backend.Driver {
	case config.DriverAppwrite:
		services, err = appwriteServices(cfg.Backend)
	case config.DriverPostgres:
		var pool db.Pool
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		var closeStores cleanupFunc
		services, closeStores, err = selfhostServices(ctx, pool, cfg)
		cleanup = func() {
			if closeStores != nil {
				closeStores()
			}
			pool.Close()
		}
	default:
		err = fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
	if err != nil {
		cleanup()
		return handlers.Dependencies{}, nil, err
	}

	gw, err := gateway.New(gatewayConfig(cfg.Backend), services)
	if err != nil {
		cleanup()
		return handlers.Dependencies{}, nil, err
	}

	logger.Info("backend configured", "driver", cfg.Backend.Driver)
	return handlers.Dependencies{
		Driver:      cfg.Backend.Driver,
		Accounts:    gw,
		Posts:       gw,
		Files:       gw,
		AuthLimiter: middleware.NewAuthRateLimiter(cfg.RateLimit),

		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
	}, cleanup, nil
}

func gatewayConfig(cfg config.BackendConfig) gateway.Config {
	return gateway.Config{
		DatabaseID:           cfg.DatabaseID,
		UserCollectionID:     cfg.UserCollectionID,
		VideoCollectionID:    cfg.VideoCollectionID,
		BookmarkCollectionID: cfg.BookmarkCollectionID,
		StorageID:            cfg.StorageID,
	}
}

func appwriteServices(cfg config.BackendConfig) (gateway.Services, error) {
	client, err := appwrite.NewClient(appwrite.Options{
		Endpoint:  cfg.Endpoint,
		ProjectID: cfg.ProjectID,
		Platform:  cfg.Platform,
		Timeout:   cfg.RequestTimeout,
		Stateless: true,
	})
	if err != nil {
		return gateway.Services{}, err
	}
	return gateway.Services{
		Accounts:  client.Account(),
		Documents: client.Databases(),
		Storage:   client.Storage(),
		Avatars:   client.Avatars(),
	}, nil
}

func selfhostServices(ctx context.Context, pool db.Pool, cfg config.Config) (gateway.Services, cleanupFunc, error) {
	store, closeStore, err := sessionStore(ctx, pool, cfg.SessionStore)
	if err != nil {
		return gateway.Services{}, nil, err
	}

	objects, err := objectStore(ctx, cfg.ObjectStore)
	if err != nil {
		closeStore()
		return gateway.Services{}, nil, err
	}

	avatars, err := selfhost.NewAvatars(cfg.Backend.AvatarBaseURL)
	if err != nil {
		closeStore()
		return gateway.Services{}, nil, err
	}

	relations := map[string][]selfhost.Relation{
		cfg.Backend.VideoCollectionID: {{Attribute: "users", CollectionID: cfg.Backend.UserCollectionID}},
	}

	return gateway.Services{
		Accounts:  selfhost.NewAccounts(repositories.NewPostgresAccountRepository(pool), auth.NewManager(cfg.SessionStore.TTL, store)),
		Documents: selfhost.NewDocuments(repositories.NewPostgresDocumentRepository(pool), relations),
		Storage:   selfhost.NewStorage(objects, repositories.NewPostgresFileRepository(pool)),
		Avatars:   avatars,
	}, closeStore, nil
}

func sessionStore(ctx context.Context, pool db.Pool, cfg config.SessionStoreConfig) (auth.SessionStore, cleanupFunc, error) {
	switch cfg.Driver {
	case "", "postgres":
		return repositories.NewPostgresSessionStore(pool), func() {}, nil
	case "redis":
		store := auth.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect redis session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return auth.NewInMemorySessionStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Driver)
	}
}

func objectStore(ctx context.Context, cfg config.ObjectStoreConfig) (storage.ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("object store bucket is required")
	}
	switch cfg.Driver {
	case "", "s3":
		store, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		store, err := storage.NewMinioStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.Driver)
	}
}
