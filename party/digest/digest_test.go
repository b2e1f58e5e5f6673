package digest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewDisabled(t *testing.T) {
	s, err := New("", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Enabled() {
		t.Fatal("empty schedule enabled the digest")
	}
	s.Start()
	s.Stop(context.Background())
	if !s.Next().IsZero() {
		t.Error("disabled scheduler reports a next run")
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	job := func(context.Context) error { return nil }
	for _, schedule := range []string{"every day", "61 * * * *", "* * *"} {
		if _, err := New(schedule, job); err == nil {
			t.Errorf("schedule %q accepted", schedule)
		}
	}
	if _, err := New("0 20 * * *", nil); err == nil {
		t.Error("nil job accepted")
	}
}

func TestScheduleNextRun(t *testing.T) {
	s, err := New("0 20 * * *", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	next := s.Next()
	if next.IsZero() {
		t.Fatal("no next run after Start")
	}
	if next.Hour() != 20 || next.Minute() != 0 {
		t.Errorf("next = %s, want 20:00", next)
	}
	if next.Before(time.Now()) {
		t.Errorf("next = %s is in the past", next)
	}
}

func TestRunOnce(t *testing.T) {
	runs := 0
	s, err := New("@hourly", func(context.Context) error {
		runs++
		if runs == 2 {
			return errors.New("send failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}
