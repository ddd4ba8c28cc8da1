package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/dashboard"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the media cleaner's queue; call it on
// shutdown so queued asset removals finish before the process exits.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure media storage: %w", err)
	}

	cleaner := media.NewCleaner(store, media.CleanerConfig{QueueSize: 128, Workers: 2}, slog.Default())

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	codec := auth.NewTokenCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(codec, users),
		Verifier:      codec,
		Videos:        videos,
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Stats:         dashboard.NewCachingStatsProvider(videos, cfg.StatsCacheTTL),
		Media:         store,
		Cleaner:       cleaner,

		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateRequests, cfg.AuthRateWindow, cfg.AuthRateBurst, 10*time.Minute),
		MaxUploadBytes: cfg.UploadMaxBytes,
	}

	return deps, cleaner.Shutdown, nil
}
