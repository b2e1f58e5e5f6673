package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func flushLine(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithUpdateMeta(context.Background(), UpdateMeta{RID: "rid-123", UpdateID: 42, UserID: 7, ChatID: 9})

	log := slog.New(handler).With("component", "party.ledger")
	LogEvent(ctx, log, slog.LevelInfo, "order.committed",
		slog.String("status", "OK"),
		slog.Int64("guest_id", 7),
		slog.Int64("cost", 500),
	)

	line := flushLine(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=party.ledger", "event=order.committed", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "guest_id=7", "cost=500"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithUpdateMeta(context.Background(), UpdateMeta{RID: "rid-json"})

	log := slog.New(handler).With("component", "party.admin")
	LogEvent(ctx, log, slog.LevelError, "bill.send",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := flushLine(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"party.admin"`, `"event":"bill.send"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	tests := []struct {
		name     string
		format   logFormat
		contains []string
		absent   string
	}{
		{name: "kv", format: formatKV, contains: []string{"rid=" + CompactRID("123:456:789")}, absent: "rid_full"},
		{name: "json", format: formatJSON, contains: []string{`"rid":"` + CompactRID("123:456:789") + `"`, `"rid_full":"123:456:789"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler, aw := newTestHandler(buf, tt.format)
			ctx := WithUpdateMeta(context.Background(), UpdateMeta{RID: "123:456:789"})
			LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test")
			line := flushLine(t, aw, buf)
			for _, want := range tt.contains {
				if !strings.Contains(line, want) {
					t.Fatalf("expected %s in %s", want, line)
				}
			}
			if tt.absent != "" && strings.Contains(line, tt.absent) {
				t.Fatalf("unexpected %s in %s", tt.absent, line)
			}
		})
	}
}

func TestStructuredHandlerDropsBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	LogEvent(context.Background(), slog.New(handler), slog.LevelDebug, "noise")
	if line := flushLine(t, aw, buf); line != "" {
		t.Fatalf("expected no output, got %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Allow())
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow() sequence = %v, want %v", got, want)
		}
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	tests := []struct {
		spec     string
		num, den int
	}{
		{"1/10", 1, 10},
		{"20", 1, 20},
		{"0", 0, 0},
		{"x/y", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		num, den := parseRatioSpec(tt.spec)
		if num != tt.num || den != tt.den {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", tt.spec, num, den, tt.num, tt.den)
		}
	}
}
