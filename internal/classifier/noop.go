package classifier

import (
	"context"
	"strings"
)

var sensationalMarkers = []string{
	"you won't believe", "shocking", "miracle", "exposed", "they don't want you to know",
	"secret cure", "hoax", "100% proven", "wake up", "msm won't report",
}

var sourcedMarkers = []string{
	"according to", "officials said", "researchers", "study published",
	"reuters", "associated press", "spokesperson", "peer-reviewed",
}

// Noop is the dev-mode capability: a deterministic keyword heuristic so the
// full pipeline runs without a model backend.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string  { return "noop" }
func (n *Noop) Model() string { return "noop" }

func (n *Noop) Ready(_ context.Context) bool { return true }

func (n *Noop) RawScores(_ context.Context, text string) (Raw, error) {
	lower := strings.ToLower(text)

	fake := 0.5
	for _, marker := range sensationalMarkers {
		if strings.Contains(lower, marker) {
			fake += 0.12
		}
	}
	for _, marker := range sourcedMarkers {
		if strings.Contains(lower, marker) {
			fake -= 0.12
		}
	}
	if strings.Count(text, "!") >= 3 {
		fake += 0.08
	}
	if fake > 0.98 {
		fake = 0.98
	}
	if fake < 0.02 {
		fake = 0.02
	}

	return Raw{
		{Label: LabelFake, Score: fake},
		{Label: LabelReal, Score: 1 - fake},
	}, nil
}

// NoopSarcasm scores exclamation and irony markers; it backs the auxiliary
// sarcasm capability in dev mode.
type NoopSarcasm struct{}

func NewNoopSarcasm() *NoopSarcasm {
	return &NoopSarcasm{}
}

func (n *NoopSarcasm) Name() string  { return "noop-sarcasm" }
func (n *NoopSarcasm) Model() string { return "noop" }

func (n *NoopSarcasm) Ready(_ context.Context) bool { return true }

func (n *NoopSarcasm) RawScores(_ context.Context, text string) (Raw, error) {
	lower := strings.ToLower(text)
	sarcastic := 0.1
	for _, marker := range []string{"yeah right", "sure, because", "oh great", "totally believable", "/s"} {
		if strings.Contains(lower, marker) {
			sarcastic += 0.25
		}
	}
	if strings.Count(text, "!") >= 2 && strings.Contains(lower, "wow") {
		sarcastic += 0.15
	}
	if sarcastic > 0.95 {
		sarcastic = 0.95
	}
	return Raw{
		{Label: "SARCASM", Score: sarcastic},
		{Label: "NOT_SARCASM", Score: 1 - sarcastic},
	}, nil
}
