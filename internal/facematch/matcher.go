package facematch

import (
	"slices"
	"strings"
)

// Similarity thresholds used when no configuration overrides them.
const (
	DefaultThreshold        = 0.75
	HighConfidenceThreshold = 0.85
	LowConfidenceThreshold  = 0.60
)

// Result is the outcome of a single nearest-neighbour scan.
type Result struct {
	Name       string  // matched name, UnknownName or EmptyRegistryName
	Similarity float64 // best cosine similarity seen, 0 when nothing scored above 0
	Recognized bool
	Empty      bool // no candidates were supplied
}

// Matcher picks the closest registered embedding for a query.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given acceptance threshold.
// A non-positive threshold falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Match scans candidates in slice order and returns the best one.
//
// The scan starts from similarity 0 with no candidate and only a strictly
// higher score replaces the current best, so on an exact tie the earlier
// candidate wins. Candidates of a different length score 0 and are never
// chosen. A match is accepted only when its similarity is strictly greater
// than the threshold; otherwise the name is reported as UnknownName.
func (m *Matcher) Match(query Vector, candidates []Entry) Result {
	if len(candidates) == 0 {
		return Result{Name: EmptyRegistryName, Empty: true}
	}

	bestName := UnknownName
	bestSimilarity := 0.0
	for _, c := range candidates {
		similarity := CosineSimilarity(query, c.Embedding)
		if similarity > bestSimilarity {
			bestName = c.Name
			bestSimilarity = similarity
		}
	}

	recognized := bestSimilarity > m.Threshold
	if !recognized {
		bestName = UnknownName
	}
	return Result{Name: bestName, Similarity: bestSimilarity, Recognized: recognized}
}

// MatchMap matches against a name to embedding mapping, scanning names in
// ascending order so that ties resolve the same way on every call.
func (m *Matcher) MatchMap(query Vector, candidates map[string]Vector) Result {
	return m.Match(query, SortedEntries(candidates))
}

// SortedEntries flattens a mapping into entries ordered by name.
func SortedEntries(m map[string]Vector) []Entry {
	entries := make([]Entry, 0, len(m))
	for name, v := range m {
		entries = append(entries, Entry{Name: name, Embedding: v})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries
}

// Tiers holds the lower bounds of the confidence tiers.
type Tiers struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultTiers are the tier bounds used when no configuration overrides them.
var DefaultTiers = Tiers{
	High:   HighConfidenceThreshold,
	Medium: DefaultThreshold,
	Low:    LowConfidenceThreshold,
}

// Of buckets a confidence value into high, medium, low or none.
func (t Tiers) Of(confidence float64) string {
	switch {
	case confidence >= t.High:
		return "high"
	case confidence >= t.Medium:
		return "medium"
	case confidence >= t.Low:
		return "low"
	default:
		return "none"
	}
}

// Tier buckets a confidence value using DefaultTiers.
func Tier(confidence float64) string {
	return DefaultTiers.Of(confidence)
}
