package scheduler

import (
	"testing"
	"time"
)

func TestNextRunAfter(t *testing.T) {
	t.Run("later_today", func(t *testing.T) {
		now := time.Date(2026, time.March, 15, 0, 30, 0, 0, time.UTC)
		got := nextRunAfter(now, 2)
		want := time.Date(2026, time.March, 15, 2, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("slot_already_passed_rolls_to_tomorrow", func(t *testing.T) {
		now := time.Date(2026, time.March, 15, 14, 0, 0, 0, time.UTC)
		got := nextRunAfter(now, 2)
		want := time.Date(2026, time.March, 16, 2, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("exactly_at_slot_rolls_to_tomorrow", func(t *testing.T) {
		now := time.Date(2026, time.March, 15, 2, 0, 0, 0, time.UTC)
		got := nextRunAfter(now, 2)
		want := time.Date(2026, time.March, 16, 2, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestStartStop(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 1)
	s.Register("noop", 0, func() (int, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return 0, nil
	})

	s.Start()
	s.Stop()

	// The job's slot is in the past, so nothing should have fired between
	// Start and Stop.
	select {
	case <-ran:
		t.Error("job should not run before its scheduled slot")
	default:
	}
}
