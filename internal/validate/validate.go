package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	KindTooShort    = "too_short"
	KindTooLong     = "too_long"
	KindMeaningless = "empty_or_meaningless"
)

type Error struct {
	Kind   string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Rules bound a single text submission. Meaningful is optional; when set it
// runs after the length checks and rejects with KindMeaningless.
type Rules struct {
	MinChars   int
	MaxChars   int
	Meaningful func(text string) bool
}

// Generic covers the plain /predict path.
func Generic() Rules {
	return Rules{MinChars: 10, MaxChars: 10000}
}

// Planetary covers the planetary-mapping surface, which demands longer
// submissions and filters junk input before spending a model call on it.
func Planetary() Rules {
	return Rules{MinChars: 50, MaxChars: 10000, Meaningful: DefaultMeaningful}
}

// Apply trims the text and checks it against the rules. The trimmed text is
// returned so callers classify exactly what was validated.
func (r Rules) Apply(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &Error{Kind: KindMeaningless, Detail: "text is empty"}
	}
	// Bounds are in characters, so multi-byte input is measured in runes.
	chars := utf8.RuneCountInString(trimmed)
	if chars < r.MinChars {
		return "", &Error{Kind: KindTooShort, Detail: fmt.Sprintf("text must be at least %d characters", r.MinChars)}
	}
	if r.MaxChars > 0 && chars > r.MaxChars {
		return "", &Error{Kind: KindTooLong, Detail: fmt.Sprintf("text must be at most %d characters", r.MaxChars)}
	}
	if r.Meaningful != nil && !r.Meaningful(trimmed) {
		return "", &Error{Kind: KindMeaningless, Detail: "text does not look like meaningful content"}
	}
	return trimmed, nil
}

// DefaultMeaningful rejects single-rune repetition and submissions where
// nearly every word is a copy of another (distinct-word ratio below 0.3).
func DefaultMeaningful(text string) bool {
	runes := []rune(strings.Join(strings.Fields(text), ""))
	if len(runes) == 0 {
		return false
	}
	first := runes[0]
	repeated := true
	for _, r := range runes {
		if r != first {
			repeated = false
			break
		}
	}
	if repeated {
		return false
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) < 2 {
		return false
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[w] = struct{}{}
	}
	return float64(len(distinct))/float64(len(words)) >= 0.3
}
