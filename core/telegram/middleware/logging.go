package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/partybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// updateSet remembers recently logged update ids. The logger runs both as a
// global middleware and inside each route, so a receipt may be seen twice.
type updateSet struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

var received = &updateSet{ttl: 10 * time.Second, seen: make(map[int]time.Time)}

// first reports whether id has not been seen within ttl and records it.
func (s *updateSet) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ts := range s.seen {
		if now.Sub(ts) > s.ttl {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

// LoggerMiddleware binds the update's rid and logging context, then writes a
// sampled update.received line once per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if rid := logger.RIDFrom(ctx); rid != "" {
			c.Set("rid", rid)
		}
		upd := c.Update()
		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil && upd.Message.Document != nil:
		attrs = append(attrs, slog.String("file_name", logger.SanitizeLimit(upd.Message.Document.FileName, 128)))
	case upd.Message != nil && c.Text() != "":
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
