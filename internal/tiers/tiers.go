package tiers

// Version identifies the deployed partition table. Consumers cache tier
// metadata keyed by this value, so any boundary change must bump it.
const Version = "planets/v1"

type Tier struct {
	ID          string
	Name        string
	Glyph       string
	Description string
	Lower       float64
	Upper       float64
}

// Display is the combined glyph+name string used by legacy consumers.
// New consumers should read Glyph and Name separately instead of parsing this.
func (t Tier) Display() string {
	return t.Glyph + " " + t.Name
}

// table is ordered most trustworthy first. Ranges are lower-inclusive,
// upper-exclusive, except Sun which only matches 1.0 exactly.
var table = []Tier{
	{ID: "sun", Name: "Sun", Glyph: "☀️", Description: "Fully corroborated reporting", Lower: 1.00, Upper: 1.00},
	{ID: "mercury", Name: "Mercury", Glyph: "☿️", Description: "Highly trustworthy", Lower: 0.89, Upper: 1.00},
	{ID: "venus", Name: "Venus", Glyph: "♀️", Description: "Trustworthy", Lower: 0.78, Upper: 0.89},
	{ID: "earth", Name: "Earth", Glyph: "🌍", Description: "Generally reliable", Lower: 0.67, Upper: 0.78},
	{ID: "mars", Name: "Mars", Glyph: "♂️", Description: "Leaning reliable", Lower: 0.56, Upper: 0.67},
	{ID: "jupiter", Name: "Jupiter", Glyph: "♃", Description: "Mixed signals", Lower: 0.45, Upper: 0.56},
	{ID: "saturn", Name: "Saturn", Glyph: "♄", Description: "Questionable sourcing", Lower: 0.34, Upper: 0.45},
	{ID: "uranus", Name: "Uranus", Glyph: "♅", Description: "Unreliable", Lower: 0.23, Upper: 0.34},
	{ID: "neptune", Name: "Neptune", Glyph: "☆", Description: "Very likely misinformation", Lower: 0.00, Upper: 0.23},
}

// All returns the partition ordered most trustworthy first.
func All() []Tier {
	out := make([]Tier, len(table))
	copy(out, table)
	return out
}

// Assign maps a truthfulness score onto its tier. Total over [0,1];
// out-of-range inputs are clamped rather than rejected.
func Assign(score float64) Tier {
	if score >= 1.0 {
		return table[0]
	}
	if score < 0 {
		score = 0
	}
	for _, t := range table[1:] {
		if score >= t.Lower {
			return t
		}
	}
	return table[len(table)-1]
}

// Rank is the tier's position from most trustworthy (0 = Sun).
func Rank(t Tier) int {
	for i, candidate := range table {
		if candidate.ID == t.ID {
			return i
		}
	}
	return len(table) - 1
}

// ByID resolves a stored tier identifier back to its metadata.
func ByID(id string) (Tier, bool) {
	for _, t := range table {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}
