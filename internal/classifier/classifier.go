package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	LabelFake = "FAKE"
	LabelReal = "REAL"
)

// ErrUnavailable is returned when the underlying model capability reports
// itself not loaded or not reachable.
var ErrUnavailable = errors.New("model capability unavailable")

type ClassScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Raw is the untouched output of a model capability: one score per class,
// in model-specific label vocabulary. Never exposed outside the adapter.
type Raw []ClassScore

// Capability is an opaque text-classification backend. Implementations do
// not cancel in-flight work themselves; callers abandon them via ctx.
type Capability interface {
	RawScores(ctx context.Context, text string) (Raw, error)
	Ready(ctx context.Context) bool
	Name() string
	Model() string
}

type Prediction struct {
	Label string
	Score float64
}

// Mapping translates model-specific class labels into the FAKE/REAL
// vocabulary. Lookups are case-insensitive.
type Mapping map[string]string

// DefaultMapping covers the label schemes observed across the supported
// fake-news checkpoints.
func DefaultMapping() Mapping {
	return Mapping{
		"LABEL_0": LabelReal,
		"LABEL_1": LabelFake,
		"REAL":    LabelReal,
		"FAKE":    LabelFake,
		"TRUE":    LabelReal,
		"FALSE":   LabelFake,
	}
}

func (m Mapping) resolve(label string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, label) {
			return v, true
		}
	}
	return "", false
}

// Adapter normalizes one capability's raw output into FAKE/REAL predictions.
type Adapter struct {
	cap     Capability
	mapping Mapping
}

func NewAdapter(cap Capability, mapping Mapping) *Adapter {
	if mapping == nil {
		mapping = DefaultMapping()
	}
	return &Adapter{cap: cap, mapping: mapping}
}

func (a *Adapter) Ready(ctx context.Context) bool {
	return a.cap.Ready(ctx)
}

func (a *Adapter) Name() string  { return a.cap.Name() }
func (a *Adapter) Model() string { return a.cap.Model() }

// Classify invokes the capability and reduces its distribution to the
// argmax class. The returned score is the probability mass of the predicted
// label, not of any fixed class.
func (a *Adapter) Classify(ctx context.Context, text string) (Prediction, error) {
	raw, err := a.cap.RawScores(ctx, text)
	if err != nil {
		return Prediction{}, err
	}
	return Normalize(raw, a.mapping)
}

// Normalize maps a raw distribution onto the canonical vocabulary and picks
// the argmax. Errors on empty output or an unmapped winning label.
func Normalize(raw Raw, mapping Mapping) (Prediction, error) {
	if len(raw) == 0 {
		return Prediction{}, errors.New("empty model output")
	}
	best := raw[0]
	for _, cs := range raw[1:] {
		if cs.Score > best.Score {
			best = cs
		}
	}
	label, ok := mapping.resolve(best.Label)
	if !ok {
		return Prediction{}, fmt.Errorf("unmapped model label %q", best.Label)
	}
	return Prediction{Label: label, Score: best.Score}, nil
}

// MassOf sums the probability assigned to the given canonical label across
// the raw distribution.
func MassOf(raw Raw, mapping Mapping, label string) float64 {
	total := 0.0
	for _, cs := range raw {
		if mapped, ok := mapping.resolve(cs.Label); ok && mapped == label {
			total += cs.Score
		}
	}
	return total
}
