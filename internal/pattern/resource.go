package pattern

import (
	"time"

	"github.com/apex-run/apex-core/internal/apexerr"
)

// ToFileResource wraps a file path as a session-scoped Resource.
func ToFileResource(id, path string) Resource {
	now := time.Now()
	return Resource{
		ID:       id,
		Name:     path,
		Kind:     ResourceKindFile,
		Created:  now,
		Updated:  now,
		FilePath: path,
	}
}

// ToPatternResource wraps a ranked pattern as a session-scoped Resource,
// the shape a lookup result is materialized into for the (out-of-scope)
// transport layer to serve.
func ToPatternResource(id string, p *Pattern) Resource {
	return Resource{
		ID:        id,
		Name:      p.Title,
		Kind:      ResourceKindPattern,
		Created:   p.Created,
		Updated:   p.Updated,
		PatternID: p.ID,
	}
}

// ToBriefResource wraps free-form generated text as a Resource.
func ToBriefResource(id, text string) Resource {
	now := time.Now()
	return Resource{
		ID:        id,
		Name:      id,
		Kind:      ResourceKindBrief,
		Mime:      "text/plain",
		Created:   now,
		Updated:   now,
		BriefText: text,
	}
}

// AsFilePath returns r.FilePath, or an error if r is not a file resource.
func (r Resource) AsFilePath() (string, error) {
	if r.Kind != ResourceKindFile {
		return "", &apexerr.InvalidResourceTypeError{Want: string(ResourceKindFile), Got: string(r.Kind)}
	}
	return r.FilePath, nil
}

// AsPatternID returns r.PatternID, or an error if r is not a pattern resource.
func (r Resource) AsPatternID() (string, error) {
	if r.Kind != ResourceKindPattern {
		return "", &apexerr.InvalidResourceTypeError{Want: string(ResourceKindPattern), Got: string(r.Kind)}
	}
	return r.PatternID, nil
}

// AsBriefText returns r.BriefText, or an error if r is not a brief resource.
func (r Resource) AsBriefText() (string, error) {
	if r.Kind != ResourceKindBrief {
		return "", &apexerr.InvalidResourceTypeError{Want: string(ResourceKindBrief), Got: string(r.Kind)}
	}
	return r.BriefText, nil
}
