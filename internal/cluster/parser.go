package cluster

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse marks a collector run that produced no output at all.
// It is a transport failure, distinct from a malformed payload.
var ErrEmptyResponse = errors.New("empty response from collector")

// previewLimit bounds how much of a malformed payload is carried in a
// ParseError for diagnosis.
const previewLimit = 200

// ParseError wraps a JSON deserialization failure together with a bounded
// preview of the offending text.
type ParseError struct {
	Err     error
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse deserializes raw collector output into a Snapshot. Surrounding
// whitespace is trimmed first. Unknown fields are ignored for forward
// compatibility; empty nodes/groups/resources sequences are valid
// observations, an empty payload is not.
func Parse(raw string) (*Snapshot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, &ParseError{Err: err, Preview: preview(raw)}
	}
	return &snap, nil
}

func preview(raw string) string {
	if len(raw) > previewLimit {
		return raw[:previewLimit] + "..."
	}
	return raw
}
