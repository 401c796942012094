package facematch

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidName is returned for names that are empty after normalisation.
	ErrInvalidName = errors.New("person name is required")
	// ErrReservedName is returned when a caller tries to register UnknownName.
	ErrReservedName = errors.New("person name is reserved")
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName turns user input into a registry key: NFC form, surrounding
// whitespace trimmed and inner runs of whitespace collapsed to one space.
// Case and diacritics are preserved, "Jiří" and "Jiri" are different people.
func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(norm.NFC.String(name)), " ")
	if name == "" {
		return "", ErrInvalidName
	}
	if name == UnknownName {
		return "", ErrReservedName
	}
	return name, nil
}

// FoldName normalizes a name for search (lowercase, no diacritics, spaces for dashes).
func FoldName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// FilterNames returns the names whose folded form contains the folded query.
// An empty query returns names unchanged.
func FilterNames(names []string, query string) []string {
	q := strings.TrimSpace(FoldName(query))
	if q == "" {
		return names
	}
	var out []string
	for _, n := range names {
		if strings.Contains(FoldName(n), q) {
			out = append(out, n)
		}
	}
	return out
}
