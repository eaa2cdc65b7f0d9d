package relay

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dauglabs/switchboard/internal/convo"
)

// DefaultSweepCron runs the conversation sweep every five minutes.
const DefaultSweepCron = "*/5 * * * *"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// Sweeper evicts idle conversations from the store on a cron schedule.
// The sweep bounds memory; staleness is independently checked on read.
type Sweeper struct {
	store *convo.Store
	expr  string
	out   io.Writer
}

// SweeperOpts holds parameters for creating a Sweeper.
type SweeperOpts struct {
	Store *convo.Store
	Cron  string    // 5-field cron expression, defaults to DefaultSweepCron
	Out   io.Writer // defaults to os.Stdout
}

// NewSweeper creates a Sweeper.
func NewSweeper(opts SweeperOpts) (*Sweeper, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("relay: sweeper: store is required")
	}
	expr := opts.Cron
	if expr == "" {
		expr = DefaultSweepCron
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("relay: sweeper: parse cron %q: %w", expr, err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Sweeper{store: opts.Store, expr: expr, out: out}, nil
}

// Run fires the sweep on schedule until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	timer := time.NewTimer(nextCronDuration(s.expr))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if removed := s.store.Sweep(); removed > 0 {
				fmt.Fprintf(s.out, "relay: swept %d idle conversations (%d live)\n", removed, s.store.Len())
			}
			timer.Reset(nextCronDuration(s.expr))
		}
	}
}
