package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	if !f.Now().Equal(start) {
		t.Fatalf("now=%v want %v", f.Now(), start)
	}
	if got := f.Advance(1500 * time.Millisecond); !got.Equal(start.Add(1500 * time.Millisecond)) {
		t.Fatalf("advance returned %v", got)
	}
	f.Set(start)
	if !f.Now().Equal(start) {
		t.Fatalf("set did not rewind")
	}
	var _ Clock = Real{}
	var _ Clock = f
}
