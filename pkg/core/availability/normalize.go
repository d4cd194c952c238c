package availability

import (
	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// DefaultFeastDay is the day of month legacy feast questions refer to
const DefaultFeastDay = 28

// Options carries the period context needed to resolve dates that legacy answers
// give without a year (e.g. "Domingo 05/10").
type Options struct {
	Period   model.Period
	FeastDay int
}

// Normalize converts a raw survey payload into the canonical Availability.
//
// It never fails: unknown or malformed payloads produce an empty (unavailable for
// everything) result plus a warning. The result is a pure function of the inputs.
func Normalize(raw []byte, opts Options) (*Availability, []Warning) {
	if opts.FeastDay == 0 {
		opts.FeastDay = DefaultFeastDay
	}

	payload, err := Decode(raw)
	if err != nil {
		return Empty(FormatUnknown), []Warning{{
			Kind:    WarningMalformed,
			Message: "payload not recognised, treated as unavailable: " + err.Error(),
		}}
	}

	return NormalizePayload(payload, opts)
}

// NormalizePayload normalizes an already decoded payload
func NormalizePayload(payload Payload, opts Options) (*Availability, []Warning) {
	if opts.FeastDay == 0 {
		opts.FeastDay = DefaultFeastDay
	}

	switch p := payload.(type) {
	case LegacyPayload:
		return normalizeLegacy(p, opts)
	case StructuredPayload:
		return normalizeStructured(p, opts)
	default:
		return Empty(FormatUnknown), []Warning{{
			Kind:    WarningMalformed,
			Message: "unsupported payload type, treated as unavailable",
		}}
	}
}
