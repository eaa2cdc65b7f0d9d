package relay

import (
	"testing"
	"time"

	"github.com/dauglabs/switchboard/internal/convo"
)

func TestNextCronDuration_Valid(t *testing.T) {
	d := nextCronDuration("*/5 * * * *")
	if d <= 0 || d > 5*time.Minute {
		t.Fatalf("expected duration in (0, 5m], got %v", d)
	}
}

func TestNextCronDuration_Invalid(t *testing.T) {
	if d := nextCronDuration("not a cron"); d != 0 {
		t.Fatalf("expected 0 for invalid expression, got %v", d)
	}
}

func TestNewSweeper_Validation(t *testing.T) {
	if _, err := NewSweeper(SweeperOpts{}); err == nil {
		t.Fatal("expected error for missing store")
	}
	store := convo.NewStore(convo.StoreOpts{})
	if _, err := NewSweeper(SweeperOpts{Store: store, Cron: "bogus"}); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	s, err := NewSweeper(SweeperOpts{Store: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.expr != DefaultSweepCron {
		t.Fatalf("expected default cron, got %q", s.expr)
	}
}
