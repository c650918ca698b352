package pattern

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/apex-run/apex-core/internal/apexerr"
)

// idPattern enforces the PAT:<CATEGORY>:<NAME> shape from §4.A.
var idPattern = regexp.MustCompile(`^PAT:[A-Z][A-Z0-9_]*:[A-Z0-9_]+$`)

// structTagValidator runs the field-level checks a generic struct-tag
// validator expresses well (required fields, numeric ranges). It cannot
// see the discriminated-variant rules below, which is exactly why those
// stay hand-written.
var structTagValidator = validator.New()

// Warning is a non-blocking semantic validation finding.
type Warning struct {
	Path    string
	Message string
}

// ValidationResult is the outcome of validating one pattern document:
// Errors is non-nil only on structural failure (never a partial
// success), Warnings accumulates semantic findings regardless.
type ValidationResult struct {
	Errors   apexerr.SchemaErrors
	Warnings []Warning
}

// OK reports whether the pattern passed structural validation. A
// pattern can be OK and still carry Warnings.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs structural validation followed by semantic validation
// and returns both outcomes together. Structural errors are collected,
// not short-circuited, so a caller can display every problem found in
// one pass.
func Validate(p *Pattern) ValidationResult {
	result := ValidationResult{}
	result.Errors = validateStructural(p)
	if len(result.Errors) == 0 {
		result.Warnings = validateSemantic(p)
	}
	return result
}

func addErr(errs apexerr.SchemaErrors, path, format string, args ...any) apexerr.SchemaErrors {
	return append(errs, &apexerr.SchemaError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// validateStructural performs the blocking checks: discriminated
// variant tag, required fields per kind, types/ranges, and the id
// regex. It also includes the FAILURE-without-signature-and-evidence
// check: although §4.A lists it among the "semantic validation
// (warnings, non-blocking)" bullets, the same paragraph calls it out as
// "an error, not a warning" — see DESIGN.md for the resolution of this
// ambiguity. Never returns a partial result: every applicable check
// runs regardless of earlier failures.
func validateStructural(p *Pattern) apexerr.SchemaErrors {
	var errs apexerr.SchemaErrors

	if err := structTagValidator.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = addErr(errs, fe.Namespace(), "%s", fe.Tag())
			}
		} else {
			errs = addErr(errs, "", "%v", err)
		}
	}

	if p.ID != "" && !idPattern.MatchString(p.ID) {
		errs = addErr(errs, "id", "id %q does not match ^PAT:<CATEGORY>:<NAME>$", p.ID)
	}

	if p.Type != "" && !p.Type.IsValid() {
		errs = addErr(errs, "type", "unknown pattern kind %q", p.Type)
	}

	if p.TrustScore < 0 || p.TrustScore > 1 {
		errs = addErr(errs, "trust_score", "trust_score %v out of range [0,1]", p.TrustScore)
	}

	for i, s := range p.Snippets {
		path := fmt.Sprintf("snippets[%d]", i)
		if s.Code == "" {
			errs = addErr(errs, path+".code", "snippet code must not be empty")
		}
		if !LanguageAllowlist[s.Language] {
			errs = addErr(errs, path+".language", "language %q not in allowlist", s.Language)
		}
	}

	switch p.Type {
	case KindCodebase:
		if len(p.Paths) == 0 {
			errs = addErr(errs, "paths", "CODEBASE patterns require non-empty paths")
		}
	case KindFailure:
		if p.Signature == "" && !p.HasEvidence() {
			errs = addErr(errs, "signature", "FAILURE patterns require a signature or non-empty evidence")
		}
	case KindMigration:
		if p.FromVersion == "" {
			errs = addErr(errs, "from_version", "MIGRATION patterns require from_version")
		}
		if p.ToVersion == "" {
			errs = addErr(errs, "to_version", "MIGRATION patterns require to_version")
		}
	}

	return errs
}

// validateSemantic performs the non-blocking checks: suspicious trust
// scores, missing-but-recommended evidence, oversized snippets, and the
// deprecated-but-trusted flag. Called only once validateStructural
// found no errors, matching §4.A's two-phase process.
func validateSemantic(p *Pattern) []Warning {
	var warnings []Warning

	if total := p.TotalSnippetLines(); total > 200 {
		warnings = append(warnings, Warning{
			Path:    "snippets",
			Message: fmt.Sprintf("total snippet lines %d exceeds recommended 200", total),
		})
	}

	if p.Type == KindAnti && !p.HasEvidence() {
		warnings = append(warnings, Warning{Path: "evidence", Message: "ANTI pattern has no evidence"})
	}

	if p.TrustScore > 0.8 && p.Usage.Successes < 3 {
		warnings = append(warnings, Warning{
			Path:    "trust_score",
			Message: "trust_score > 0.8 with fewer than 3 successes is suspicious",
		})
	}

	if p.Deprecated && p.TrustScore > 0.5 {
		warnings = append(warnings, Warning{
			Path:    "deprecated",
			Message: "deprecated pattern has trust_score > 0.5",
		})
	}

	return warnings
}

// ValidateLoaded re-checks the invariants that must hold for a pattern
// already accepted into the store (id uniqueness is the caller's
// responsibility, since it is a store-wide property, not a per-pattern
// one). Returns an InvariantViolation the first time it finds a
// mismatch; callers use this at load time to decide whether to exclude
// the pattern rather than serve stale or corrupt trust data.
func ValidateLoaded(p *Pattern) error {
	if !TrustScoreMatches(p.TrustScore, p.Usage) {
		return &apexerr.InvariantViolation{
			PatternID: p.ID,
			Message:   fmt.Sprintf("trust_score %v does not match Wilson derivation %v", p.TrustScore, DerivedTrustScore(p.Usage)),
		}
	}
	if p.Usage.Successes > p.Usage.Successes+p.Usage.Failures {
		return &apexerr.InvariantViolation{PatternID: p.ID, Message: "usage.successes exceeds successes+failures"}
	}
	if p.Type == KindCodebase && len(p.Paths) == 0 {
		return &apexerr.InvariantViolation{PatternID: p.ID, Message: "CODEBASE pattern has empty paths"}
	}
	if p.Type == KindFailure && p.Signature == "" && !p.HasEvidence() {
		return &apexerr.InvariantViolation{PatternID: p.ID, Message: "FAILURE pattern has neither signature nor evidence"}
	}
	return nil
}
