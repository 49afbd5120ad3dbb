package observability

import (
	"log"
	"sync"
	"time"
)

// Observer tracks prediction outcomes per error kind. It is shared across
// requests, so counts are guarded; everything else is log output.
type Observer struct {
	logger *log.Logger

	mu        sync.Mutex
	successes int64
	failures  map[string]int64
}

func NewObserver(logger *log.Logger) *Observer {
	if logger == nil {
		logger = log.Default()
	}
	return &Observer{
		logger:   logger,
		failures: make(map[string]int64),
	}
}

func (o *Observer) RecordSuccess(source string, label string, tierID string, elapsed time.Duration) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.successes++
	count := o.successes
	o.mu.Unlock()
	o.logger.Printf("predict ok source=%s label=%s tier=%s latency_ms=%d total=%d",
		source, label, tierID, elapsed.Milliseconds(), count)
}

func (o *Observer) RecordFailure(source string, kind string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.failures[kind]++
	count := o.failures[kind]
	o.mu.Unlock()

	o.logger.Printf("predict failed source=%s kind=%s count=%d", source, kind, count)

	// Alert hook for sustained failure streaks of the same kind.
	if count%10 == 0 {
		o.logger.Printf("predict alert kind=%s repeated_failure_count=%d", kind, count)
	}
}

// Snapshot returns current counters for the health surface.
func (o *Observer) Snapshot() (successes int64, failures map[string]int64) {
	if o == nil {
		return 0, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int64, len(o.failures))
	for k, v := range o.failures {
		out[k] = v
	}
	return o.successes, out
}
