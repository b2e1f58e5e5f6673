package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/core/metrics"
	tghelpers "github.com/m3rciful/partybot/core/telegram/helpers"
	"github.com/m3rciful/partybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handled runs fn as the named handler and writes one handler.handled line.
// A nil fn is recorded with outcome "skip".
func handled(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	if fn == nil {
		summarize(ctx, c, name, "skip", start, nil, extras)
		return nil
	}
	err := fn(c)
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	summarize(ctx, c, name, outcome, start, err, extras)
	return err
}

func summarize(ctx context.Context, c tele.Context, name, outcome string, start time.Time, err error, extras []slog.Attr) {
	msgs, kb := middleware.GetCounters(c)
	attrs := append([]slog.Attr{
		slog.String("status", outcome),
		slog.String("handler", name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}, extras...)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errCode(err)),
		)
	}
	metrics.Handled.WithLabelValues(name, outcome).Inc()
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

// handlerName turns a command, menu label or callback key into a metric-safe name.
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

func errCode(err error) string {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return "FLOOD"
	}
	var tgErr *tele.Error
	if errors.As(err, &tgErr) {
		return "TG_" + strconv.Itoa(tgErr.Code)
	}
	t := reflect.TypeOf(errors.Unwrap(err))
	if t == nil {
		t = reflect.TypeOf(err)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
