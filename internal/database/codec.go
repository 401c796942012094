package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kozaktomas/caregiver-faces/internal/facematch"
)

// EncodeFaces serializes the gallery as a JSON object of name to float array.
// float32 values are written in their shortest round-tripping form.
func EncodeFaces(faces map[string]facematch.Vector) ([]byte, error) {
	if faces == nil {
		faces = map[string]facematch.Vector{}
	}
	data, err := json.Marshal(faces)
	if err != nil {
		return nil, fmt.Errorf("encode faces: %w", err)
	}
	return data, nil
}

// DecodeFaces parses a record written by EncodeFaces.
// Empty input decodes to an empty mapping; anything unparsable is ErrCorrupt.
func DecodeFaces(data []byte) (map[string]facematch.Vector, error) {
	faces := make(map[string]facematch.Vector)
	if len(bytes.TrimSpace(data)) == 0 {
		return faces, nil
	}
	if err := json.Unmarshal(data, &faces); err != nil {
		return nil, fmt.Errorf("%w: faces: %w", ErrCorrupt, err)
	}
	if faces == nil {
		// "null" is a valid JSON document.
		faces = make(map[string]facematch.Vector)
	}
	return faces, nil
}

// EncodeNames serializes a role set as a sorted, de-duplicated JSON array.
func EncodeNames(names []string) ([]byte, error) {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	data, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("encode names: %w", err)
	}
	return data, nil
}

// DecodeNames parses a record written by EncodeNames.
func DecodeNames(data []byte) ([]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: names: %w", ErrCorrupt, err)
	}
	return names, nil
}
