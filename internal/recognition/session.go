// Package recognition ties the face registry, the similarity matcher and the
// role classifier together into the public operations of the system.
package recognition

import (
	"fmt"
	"math"
	"sync"

	"github.com/kozaktomas/caregiver-faces/internal/facematch"
	"github.com/kozaktomas/caregiver-faces/internal/registry"
	"github.com/kozaktomas/caregiver-faces/internal/roles"
)

// Outcome is the answer to one recognition attempt.
type Outcome struct {
	Name          string     `json:"name"`
	Confidence    float64    `json:"confidence"`
	Recognized    bool       `json:"recognized"`
	Role          roles.Role `json:"role"`
	Tier          string     `json:"tier"`
	EmptyRegistry bool       `json:"empty_registry,omitempty"`

	// Similarity is the best raw cosine score, kept even when the match is
	// rejected. It is never shown to callers.
	Similarity float64 `json:"-"`
}

// Authorized reports whether the person is known in any role.
func (o Outcome) Authorized() bool {
	return o.Role.Authorized()
}

// ConfidencePercent formats the confidence for display, e.g. "85.3%".
func (o Outcome) ConfidencePercent() string {
	return fmt.Sprintf("%.1f%%", o.Confidence*100)
}

// Gallery is the read side of the face registry.
type Gallery interface {
	Snapshot() registry.Snapshot
}

// Classifier assigns a role to a recognized name.
type Classifier interface {
	Classify(name string, confidence float64) roles.Assignment
}

// Session answers recognition queries against the current registry contents.
// It performs no I/O and is safe for concurrent use.
type Session struct {
	gallery    Gallery
	classifier Classifier
	matcher    *facematch.Matcher
	tiers      facematch.Tiers

	indexMu sync.Mutex
	index   *facematch.Index // nil unless approximate search is enabled
}

// NewSession creates a session. A nil matcher uses the default threshold.
func NewSession(gallery Gallery, classifier Classifier, matcher *facematch.Matcher) *Session {
	if matcher == nil {
		matcher = facematch.NewMatcher(facematch.DefaultThreshold)
	}
	return &Session{
		gallery:    gallery,
		classifier: classifier,
		matcher:    matcher,
		tiers:      facematch.DefaultTiers,
	}
}

// SetTiers replaces the confidence tier bounds reported on outcomes.
// Call it before the session is shared.
func (s *Session) SetTiers(t facematch.Tiers) {
	s.tiers = t
}

// EnableIndex narrows each query to the k approximate nearest neighbours
// before exact scoring.
func (s *Session) EnableIndex(k int) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index = facematch.NewIndex(k)
}

// Threshold returns the acceptance threshold of the matcher.
func (s *Session) Threshold() float64 {
	return s.matcher.Threshold
}

// Recognize matches the embedding against the registry and classifies the
// result. Only a recognized match reaches the classifier.
func (s *Session) Recognize(embedding facematch.Vector) Outcome {
	snap := s.gallery.Snapshot()
	result := s.matcher.Match(embedding, s.candidates(embedding, snap))

	if !result.Recognized {
		return Outcome{
			Name:          facematch.UnknownName,
			Role:          roles.Unknown,
			Tier:          s.tiers.Of(0),
			EmptyRegistry: result.Empty,
			Similarity:    result.Similarity,
		}
	}

	confidence := min(max(result.Similarity, 0), 1)
	a := s.classifier.Classify(result.Name, confidence)
	return Outcome{
		Name:       a.Name,
		Confidence: a.Confidence,
		Recognized: true,
		Role:       a.Role,
		Tier:       s.tiers.Of(a.Confidence),
		Similarity: result.Similarity,
	}
}

// candidates returns the entries to score exactly. Without an index, or when
// the index has nothing for the query, every entry is scored. When the
// weakest neighbour scores as high as the best one the tie may extend past
// the neighbours, so every entry is scored to keep the ascending name order.
func (s *Session) candidates(query facematch.Vector, snap registry.Snapshot) []facematch.Entry {
	if len(snap.Entries) == 0 {
		return nil
	}

	s.indexMu.Lock()
	ix := s.index
	if ix != nil && !ix.Current(snap.Revision) {
		ix.Build(snap.Entries, snap.Revision)
	}
	s.indexMu.Unlock()

	if ix == nil {
		return snap.Entries
	}
	found := ix.Search(query)
	if len(found) == 0 || (len(found) < len(snap.Entries) && tiedAtBoundary(query, found)) {
		return snap.Entries
	}
	return found
}

// tiedAtBoundary reports whether every neighbour scores the same as the best.
func tiedAtBoundary(query facematch.Vector, found []facematch.Entry) bool {
	best, worst := math.Inf(-1), math.Inf(1)
	for _, e := range found {
		sim := facematch.CosineSimilarity(query, e.Embedding)
		best = max(best, sim)
		worst = min(worst, sim)
	}
	return worst == best
}
