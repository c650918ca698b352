package pattern

import "testing"

const legacyDoc = `
id: PAT:UI:BUTTON
type: CODEBASE
title: Button component conventions
paths:
  - "src/ui/**"
stars: 4
`

const nativeDoc = `
id: PAT:UI:BUTTON
type: CODEBASE
title: Button component conventions
paths:
  - "src/ui/**"
usage:
  successes: 18
  failures: 2
`

func TestDecodeDocumentConvertsLegacyStarsToUsage(t *testing.T) {
	p, err := DecodeDocument([]byte(legacyDoc))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if p.Usage.Successes != 4 || p.Usage.Failures != 1 {
		t.Fatalf("Usage = %+v, want {Successes:4 Failures:1}", p.Usage)
	}
	if got := DerivedTrustScore(p.Usage); got <= 0 {
		t.Fatalf("expected a positive derived trust score for a 4-star pattern, got %v", got)
	}
}

func TestDecodeDocumentPrefersExplicitUsageOverStars(t *testing.T) {
	mixed := legacyDoc + "\nusage:\n  successes: 1\n  failures: 9\n"
	p, err := DecodeDocument([]byte(mixed))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if p.Usage.Successes != 1 || p.Usage.Failures != 9 {
		t.Fatalf("Usage = %+v, want the explicit usage block to win over stars", p.Usage)
	}
}

func TestDecodeDocumentNativeDocumentUnchanged(t *testing.T) {
	p, err := DecodeDocument([]byte(nativeDoc))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if p.Usage.Successes != 18 || p.Usage.Failures != 2 {
		t.Fatalf("Usage = %+v, want {Successes:18 Failures:2}", p.Usage)
	}
}

const legacyJSONDoc = `{
  "id": "PAT:UI:BUTTON",
  "type": "CODEBASE",
  "title": "Button component conventions",
  "paths": ["src/ui/**"],
  "stars": 4
}`

func TestDecodeJSONConvertsLegacyStarsToUsage(t *testing.T) {
	p, err := DecodeJSON([]byte(legacyJSONDoc))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if p.Usage.Successes != 4 || p.Usage.Failures != 1 {
		t.Fatalf("Usage = %+v, want {Successes:4 Failures:1}", p.Usage)
	}
	if got := DerivedTrustScore(p.Usage); got <= 0 {
		t.Fatalf("expected a positive derived trust score for a 4-star pattern, got %v", got)
	}
}

const nativeJSONDoc = `{
  "id": "PAT:UI:BUTTON",
  "type": "CODEBASE",
  "title": "Button component conventions",
  "paths": ["src/ui/**"],
  "usage": {"successes": 18, "failures": 2}
}`

func TestDecodeJSONNativeDocumentUnchanged(t *testing.T) {
	p, err := DecodeJSON([]byte(nativeJSONDoc))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if p.Usage.Successes != 18 || p.Usage.Failures != 2 {
		t.Fatalf("Usage = %+v, want {Successes:18 Failures:2}", p.Usage)
	}
}

func TestDecodeDocumentOutOfRangeStarsClamp(t *testing.T) {
	doc := `
id: PAT:UI:BUTTON
type: CODEBASE
title: Button component conventions
paths:
  - "src/ui/**"
stars: 9
`
	p, err := DecodeDocument([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if p.Usage.Successes != legacyStarSampleSize || p.Usage.Failures != 0 {
		t.Fatalf("Usage = %+v, want stars clamped to the sample size", p.Usage)
	}
}
