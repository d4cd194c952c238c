package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is a decoded survey response in one of the supported layouts.
// It is either a LegacyPayload or a StructuredPayload.
type Payload interface {
	Format() Format
}

// LegacyAnswer is one entry of the flat legacy answer list
type LegacyAnswer struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

// LegacyPayload is the flat list of {questionId, answer} pairs
type LegacyPayload struct {
	Answers []LegacyAnswer
}

func (LegacyPayload) Format() Format { return FormatLegacy }

// StructuredPayload is the versioned structured layout; fields are kept raw so that
// each one can be decoded (and reported) independently.
type StructuredPayload struct {
	Version string
	Fields  map[string]json.RawMessage
}

func (StructuredPayload) Format() Format { return FormatStructured }

const structuredVersion = "2.0"

// Decode inspects the raw payload once and returns the matching Payload variant
func Decode(raw []byte) (Payload, error) {
	return decode(raw, 0)
}

func decode(raw []byte, depth int) (Payload, error) {
	if depth > 2 {
		return nil, fmt.Errorf("payload nested too deeply")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	switch trimmed[0] {
	case '[':
		var answers []LegacyAnswer
		if err := json.Unmarshal(trimmed, &answers); err != nil {
			return nil, fmt.Errorf("failed to parse legacy answer list: %w", err)
		}
		return LegacyPayload{Answers: answers}, nil

	case '"':
		// Some records store the answer list as a JSON-encoded string
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("failed to parse string payload: %w", err)
		}
		return decode([]byte(inner), depth+1)

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse payload object: %w", err)
		}

		if version, ok := structuredVersionOf(fields); ok {
			if version != structuredVersion {
				return nil, fmt.Errorf("unsupported format version %q", version)
			}
			return StructuredPayload{Version: version, Fields: fields}, nil
		}

		if responses, ok := fields["responses"]; ok {
			return decode(responses, depth+1)
		}

		return nil, fmt.Errorf("payload object has no format version and no responses")

	default:
		return nil, fmt.Errorf("payload is neither an object nor a list")
	}
}

// structuredVersionOf reads the version marker, accepting string or numeric values
func structuredVersionOf(fields map[string]json.RawMessage) (string, bool) {
	for _, key := range []string{"format_version", "version"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s), true
		}

		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if f, err := n.Float64(); err == nil && f == 2 {
				return structuredVersion, true
			}
			return n.String(), true
		}
	}
	return "", false
}
