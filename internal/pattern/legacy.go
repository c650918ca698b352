package pattern

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// legacyStarSampleSize is the nominal Bernoulli sample size a converted
// star rating is spread across. trust_score is never authored directly
// (see DerivedTrustScore): a bare "stars: 4" carries no usage history of
// its own, so the conversion manufactures one consistent with the
// rating (4 of 5 "trials" succeeding) rather than writing trust_score
// straight from the star value, which would not survive the store's
// re-derive-on-write discipline from §6.
const legacyStarSampleSize = 5

// DecodeDocument unmarshals one YAML pattern document, native or legacy,
// into a Pattern. A legacy document carries an integer "stars" field
// (0-5) in place of usage counters; this is converted into a synthetic
// Usage before the rest of the document is decoded, so both document
// shapes share one validation path — and one trust derivation — from
// here on.
func DecodeDocument(data []byte) (*Pattern, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pattern: decode document: %w", err)
	}
	if err := convertLegacyStars(raw); err != nil {
		return nil, err
	}

	normalized, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("pattern: re-encode normalized document: %w", err)
	}

	var p Pattern
	if err := yaml.Unmarshal(normalized, &p); err != nil {
		return nil, fmt.Errorf("pattern: decode normalized document: %w", err)
	}
	return &p, nil
}

// DecodeJSON unmarshals one JSON pattern document, native or legacy,
// into a Pattern, sharing the same legacy "stars" conversion and
// schema as DecodeDocument's YAML path.
func DecodeJSON(data []byte) (*Pattern, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pattern: decode json document: %w", err)
	}
	if err := convertLegacyStars(raw); err != nil {
		return nil, err
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("pattern: re-encode normalized json document: %w", err)
	}

	var p Pattern
	if err := json.Unmarshal(normalized, &p); err != nil {
		return nil, fmt.Errorf("pattern: decode normalized json document: %w", err)
	}
	return &p, nil
}

// convertLegacyStars rewrites raw["stars"], if present and raw carries
// no explicit "usage" block, into a synthetic Usage in place. Shared by
// both DecodeDocument and DecodeJSON so a star rating converts the same
// way regardless of which surface syntax carried it.
func convertLegacyStars(raw map[string]any) error {
	stars, ok := raw["stars"]
	if !ok {
		return nil
	}
	if _, hasUsage := raw["usage"]; !hasUsage {
		n, err := starsToInt(stars)
		if err != nil {
			return fmt.Errorf("pattern: legacy stars field: %w", err)
		}
		if n < 0 {
			n = 0
		}
		if n > legacyStarSampleSize {
			n = legacyStarSampleSize
		}
		raw["usage"] = map[string]any{
			"successes": n,
			"failures":  legacyStarSampleSize - n,
		}
	}
	delete(raw, "stars")
	return nil
}

func starsToInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("stars field has unexpected type %T", v)
	}
}
