// Package pattern defines the Pattern data model: a discriminated union
// over seven knowledge kinds, the validator that enforces the schema
// invariants in front of it, and the Wilson-lower-bound trust derivation
// that every ranking decision downstream ultimately reads.
//
// The variant is modeled as one flat struct dispatched on Type, not as a
// Go interface hierarchy: every consumption site exhaustively switches
// on Type, and an unrecognized tag is an immediate error, never a
// silent no-op.
package pattern

import "time"

// Kind is the discriminating tag of a Pattern variant.
type Kind string

const (
	// KindCodebase captures a convention specific to one codebase or
	// directory tree. Requires non-empty Paths.
	KindCodebase Kind = "CODEBASE"

	// KindLang captures a language-idiomatic technique.
	KindLang Kind = "LANG"

	// KindAnti documents an anti-pattern to avoid. Should carry Evidence.
	KindAnti Kind = "ANTI"

	// KindFailure captures a recognized failure mode. Requires a
	// Signature or non-empty Evidence.
	KindFailure Kind = "FAILURE"

	// KindPolicy captures an organizational or team policy.
	KindPolicy Kind = "POLICY"

	// KindTest captures a testing technique or fixture convention.
	KindTest Kind = "TEST"

	// KindMigration captures a version-to-version migration recipe.
	// Requires FromVersion and ToVersion.
	KindMigration Kind = "MIGRATION"
)

// AllKinds lists every valid variant tag in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindCodebase,
		KindLang,
		KindAnti,
		KindFailure,
		KindPolicy,
		KindTest,
		KindMigration,
	}
}

// IsValid reports whether k is one of the seven recognized kinds.
func (k Kind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// LanguageAllowlist is the fixed set of snippet languages the validator
// accepts. Kept short and explicit rather than open-ended so a typo in
// a pattern file fails structural validation instead of silently
// shipping an unrenderable snippet.
var LanguageAllowlist = map[string]bool{
	"go": true, "javascript": true, "typescript": true, "python": true,
	"rust": true, "java": true, "c": true, "cpp": true, "bash": true,
	"shell": true, "sql": true, "yaml": true, "json": true, "html": true,
	"css": true, "ruby": true, "php": true, "kotlin": true, "swift": true,
	"plaintext": true,
}

// Usage tracks the empirical success/failure counts a pattern's trust
// score is derived from.
type Usage struct {
	Successes uint64     `yaml:"successes" json:"successes"`
	Failures  uint64     `yaml:"failures" json:"failures"`
	LastUsed  *time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
}

// Total returns the Bernoulli sample size successes+failures.
func (u Usage) Total() uint64 {
	return u.Successes + u.Failures
}

// Snippet is a single code example attached to a pattern.
type Snippet struct {
	Language string `yaml:"language" json:"language" validate:"required"`
	Code     string `yaml:"code" json:"code" validate:"required"`
}

// Evidence is a citation or source backing a pattern's claim.
type Evidence struct {
	Kind string `yaml:"kind" json:"kind" validate:"required"`
	Ref  string `yaml:"ref" json:"ref" validate:"required"`
	Note string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Version is a semver triple. Comparisons are field-wise; no pre-release
// or build-metadata segment is modeled since patterns do not need them.
type Version struct {
	Major int `yaml:"major" json:"major"`
	Minor int `yaml:"minor" json:"minor"`
	Patch int `yaml:"patch" json:"patch"`
}

// Less reports whether v precedes other in version order.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// Pattern is the primary retrievable unit: a trust-scored, typed piece
// of engineering knowledge. Fields required only by specific kinds are
// marked below; the validator enforces kind-specific requirements that a
// generic struct tag cannot express.
type Pattern struct {
	// ID is of shape PAT:<CATEGORY>:<NAME>, unique across the store and
	// immutable once assigned.
	ID string `yaml:"id" json:"id" validate:"required"`

	// Type is the discriminating variant tag.
	Type Kind `yaml:"type" json:"type" validate:"required"`

	Title   string `yaml:"title" json:"title" validate:"required"`
	Summary string `yaml:"summary" json:"summary"`

	// TrustScore is derived, never authored directly; see WilsonLowerBound.
	TrustScore float64 `yaml:"trust_score" json:"trust_score" validate:"gte=0,lte=1"`

	Usage    Usage      `yaml:"usage" json:"usage"`
	Snippets []Snippet  `yaml:"snippets,omitempty" json:"snippets,omitempty"`
	Evidence []Evidence `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	Tags     []string   `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Paths is the set of file/directory globs this pattern applies to.
	// Required non-empty for KindCodebase.
	Paths []string `yaml:"paths,omitempty" json:"paths,omitempty"`

	// Signature is an optional structural fingerprint used by
	// KindFailure to match recurring failure shapes.
	Signature string `yaml:"signature,omitempty" json:"signature,omitempty"`

	Deprecated bool    `yaml:"deprecated" json:"deprecated"`
	Version    Version `yaml:"version" json:"version"`

	Created time.Time `yaml:"created" json:"created"`
	Updated time.Time `yaml:"updated" json:"updated"`

	// FromVersion and ToVersion are required for KindMigration.
	FromVersion string `yaml:"from_version,omitempty" json:"from_version,omitempty"`
	ToVersion   string `yaml:"to_version,omitempty" json:"to_version,omitempty"`
}

// TagSet returns Tags deduplicated as a set. Tags is stored as a slice
// (stable encode order) but treated as a set by every consumer.
func (p *Pattern) TagSet() map[string]bool {
	set := make(map[string]bool, len(p.Tags))
	for _, t := range p.Tags {
		set[t] = true
	}
	return set
}

// TotalSnippetLines counts newline-delimited lines across every
// snippet's Code, used by the >200-line semantic warning.
func (p *Pattern) TotalSnippetLines() int {
	total := 0
	for _, s := range p.Snippets {
		if s.Code == "" {
			continue
		}
		lines := 1
		for _, r := range s.Code {
			if r == '\n' {
				lines++
			}
		}
		total += lines
	}
	return total
}

// HasEvidence reports whether the pattern carries at least one citation.
func (p *Pattern) HasEvidence() bool {
	return len(p.Evidence) > 0
}

// Resource is the tagged variant the surrounding tool surface serves:
// a file, a pattern, or a brief. The lookup core only produces these
// values (see ToFileResource/ToPatternResource); it never owns a
// Resource's lifecycle beyond handing a value out.
type ResourceKind string

const (
	ResourceKindFile    ResourceKind = "file"
	ResourceKindPattern ResourceKind = "pattern"
	ResourceKindBrief   ResourceKind = "brief"
)

// Resource is a uniquely-identified, timestamped handle served to
// callers. Kind-specific payload fields are populated according to Kind;
// accessing the wrong one is a programmer error caught by the typed
// accessors in resource.go.
type Resource struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Kind    ResourceKind `json:"kind"`
	Mime    string       `json:"mime,omitempty"`
	Created time.Time    `json:"created"`
	Updated time.Time    `json:"updated"`

	// FilePath is populated for ResourceKindFile.
	FilePath string `json:"file_path,omitempty"`

	// PatternID is populated for ResourceKindPattern.
	PatternID string `json:"pattern_id,omitempty"`

	// BriefText is populated for ResourceKindBrief.
	BriefText string `json:"brief_text,omitempty"`
}
