package observability

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestObserverCounts(t *testing.T) {
	o := NewObserver(log.New(&bytes.Buffer{}, "", 0))

	o.RecordSuccess("text", "REAL", "earth", 40*time.Millisecond)
	o.RecordSuccess("url", "FAKE", "neptune", 120*time.Millisecond)
	o.RecordFailure("text", "ValidationError")
	o.RecordFailure("text", "PredictionTimeout")
	o.RecordFailure("text", "PredictionTimeout")

	successes, failures := o.Snapshot()
	if successes != 2 {
		t.Fatalf("expected 2 successes, got %d", successes)
	}
	if failures["ValidationError"] != 1 || failures["PredictionTimeout"] != 2 {
		t.Fatalf("unexpected failure counts: %v", failures)
	}
}

func TestObserverAlertsOnRepeatedFailures(t *testing.T) {
	var buf bytes.Buffer
	o := NewObserver(log.New(&buf, "", 0))

	for i := 0; i < 10; i++ {
		o.RecordFailure("url", "ModelUnavailable")
	}
	if !strings.Contains(buf.String(), "predict alert kind=ModelUnavailable repeated_failure_count=10") {
		t.Fatalf("expected alert line after tenth failure, log was:\n%s", buf.String())
	}
}

func TestObserverNilReceiver(t *testing.T) {
	var o *Observer
	o.RecordSuccess("text", "REAL", "earth", time.Millisecond)
	o.RecordFailure("text", "ValidationError")
	if s, f := o.Snapshot(); s != 0 || f != nil {
		t.Fatalf("nil observer should report zero state, got %d %v", s, f)
	}
}
