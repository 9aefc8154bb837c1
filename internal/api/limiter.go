package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ipLimiter is a token bucket per client address. rps <= 0 disables it.
type ipLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &ipLimiter{rps: rps, burst: burst}
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rps > 0 && !l.getLimiter(clientKey(r)).Allow() {
			writeStatusError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *ipLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

// userQuota caps requests per acting user within a fixed window.
// Requests without a numeric user header are left to the handlers.
type userQuota struct {
	repo   domain.RateLimitRepository
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

func newUserQuota(repo domain.RateLimitRepository, limit int, window time.Duration, logger *zerolog.Logger) *userQuota {
	return &userQuota{repo: repo, limit: limit, window: window, logger: logger}
}

func (q *userQuota) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q.repo == nil || q.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.ParseInt(r.Header.Get(models.HeaderUserID), 10, 64)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		allowed, err := q.repo.CheckRateLimit(ctx, "user:"+strconv.FormatInt(userID, 10), q.limit, q.window)
		cancel()
		if err != nil {
			q.logger.Warn().Err(err).Int64("user_id", userID).Msg("user quota check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			q.logger.Warn().Int64("user_id", userID).Msg("user quota exceeded")
			writeStatusError(w, r, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
