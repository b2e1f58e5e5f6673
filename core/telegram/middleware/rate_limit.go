package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// userGate remembers when each user was last let through.
type userGate struct {
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	seen  map[int64]time.Time
	sweep time.Time
}

func (g *userGate) allow(userID int64) bool {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.Sub(g.sweep) > time.Minute {
		for id, ts := range g.seen {
			if now.Sub(ts) >= g.interval {
				delete(g.seen, id)
			}
		}
		g.sweep = now
	}
	if last, ok := g.seen[userID]; ok && now.Sub(last) < g.interval {
		return false
	}
	g.seen[userID] = now
	return true
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// opts.Interval. Limited updates are counted, logged and handed to OnLimited.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return rateLimit(opts, time.Now)
}

func rateLimit(opts RateLimitOptions, now func() time.Time) tele.MiddlewareFunc {
	gate := &userGate{interval: opts.Interval, now: now, seen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if gate.allow(user.ID) {
				return next(c)
			}

			metrics.Handled.WithLabelValues("rate_limit", "rate_limited").Inc()
			attrs := []any{slog.String("event", "tg.rate_limit"), slog.Int64("user_id", user.ID)}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.Warn("rate limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
