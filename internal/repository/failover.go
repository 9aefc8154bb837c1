package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRetryInterval = time.Minute

// FailoverRateLimitRepository serves from primary and switches to fallback
// when primary fails. Primary is retried once per retry interval.
type FailoverRateLimitRepository struct {
	primary       domain.RateLimitRepository
	fallback      domain.RateLimitRepository
	logger        *zerolog.Logger
	retryInterval time.Duration

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
}

func NewFailoverRateLimitRepository(primary, fallback domain.RateLimitRepository, logger *zerolog.Logger) *FailoverRateLimitRepository {
	return &FailoverRateLimitRepository{
		primary:       primary,
		fallback:      fallback,
		logger:        logger,
		retryInterval: defaultRetryInterval,
	}
}

func (r *FailoverRateLimitRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isDown || time.Since(r.lastCheck) > r.retryInterval
}

func (r *FailoverRateLimitRepository) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		r.logger.Error().Err(err).Msg("Primary rate limit repository failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = time.Now()
}

func (r *FailoverRateLimitRepository) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDown {
		r.logger.Info().Msg("Primary rate limit repository recovered")
	}
	r.isDown = false
}

func (r *FailoverRateLimitRepository) IsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverRateLimitRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
