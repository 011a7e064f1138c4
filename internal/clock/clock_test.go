package clock

import (
	"testing"
	"time"
)

func TestSystemNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := System{}.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestFixedAdvance(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 7, 17, 10, 0, 0, 0, time.FixedZone("PKT", 5*3600))
	clk := NewFixed(start)
	if !clk.Now().Equal(start) || clk.Now().Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", start, clk.Now())
	}
	clk.Advance(90 * time.Second)
	if got := clk.Now().Sub(start); got != 90*time.Second {
		t.Fatalf("expected 90s advance, got %v", got)
	}
}
