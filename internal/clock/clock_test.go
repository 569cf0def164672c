package clock_test

import (
	"testing"
	"time"

	"github.com/nowplaying-redux/adapter-go/internal/clock"
)

func TestManualAdvance(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	c := clock.NewManual(start)

	if got := clock.Millis(c.Now()); got != 1_700_000_000_000 {
		t.Fatalf("Millis = %d, want 1700000000000", got)
	}
	c.Advance(1500 * time.Millisecond)
	if got := clock.Millis(c.Now()); got != 1_700_000_001_500 {
		t.Errorf("after Advance Millis = %d, want 1700000001500", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Set did not reset clock: %v", c.Now())
	}
}

func TestRealIsCurrent(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	if got.Before(before) {
		t.Errorf("Real.Now() = %v is before %v", got, before)
	}
}
