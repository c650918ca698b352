// Package ingest loads pattern documents from a directory of YAML or
// JSON files into a store.Store, running each one through the §4.A
// validator before it is allowed to land. This is the load path the
// teacher's index command takes for its own .agents/ knowledge
// directories, generalized here from markdown frontmatter scanning to
// whole-document pattern records.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/pattern"
	"github.com/apex-run/apex-core/internal/store"
)

// Report summarizes one Directory call: how many pattern files loaded
// cleanly, and the structural/semantic problems found in the rest.
type Report struct {
	Loaded   int
	Skipped  []SkipReason
	Warnings []pattern.Warning
}

// SkipReason names the file and the reason a candidate pattern document
// was excluded from the store.
type SkipReason struct {
	File    string
	Message string
}

// Directory walks every regular file under dir, decoding each one per
// §6's extension dispatch (.json through encoding/json, .yaml/.yml
// through YAML; any other extension rejected with a SchemaError),
// validates the result as a Pattern, recomputes its trust_score from
// usage (never trusting an authored value), and Puts every structurally
// valid one into s. A malformed or unrecognized file does not abort the
// whole load: it is recorded in Report.Skipped and the walk continues,
// matching the validator's "collect every problem, don't short-circuit"
// discipline one level up.
func Directory(ctx context.Context, s store.Store, dir string) (Report, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("ingest: walk %s: %w", dir, err)
	}
	sort.Strings(files)

	report := Report{}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			report.Skipped = append(report.Skipped, SkipReason{File: f, Message: err.Error()})
			continue
		}

		p, err := decode(f, data)
		if err != nil {
			report.Skipped = append(report.Skipped, SkipReason{File: f, Message: err.Error()})
			continue
		}

		result := pattern.Validate(p)
		if !result.OK() {
			report.Skipped = append(report.Skipped, SkipReason{File: f, Message: result.Errors.Error()})
			continue
		}
		report.Warnings = append(report.Warnings, result.Warnings...)

		p.TrustScore = pattern.DerivedTrustScore(p.Usage)
		if err := s.Put(ctx, p); err != nil {
			report.Skipped = append(report.Skipped, SkipReason{File: f, Message: (&apexerr.StoreError{Op: "put", Err: err}).Error()})
			continue
		}
		report.Loaded++
	}
	return report, nil
}

// decode dispatches a pattern document to the decoder matching its
// extension, per §6 ("Extension-dispatched: .json → JSON; .yaml/.yml →
// YAML. Unrecognized extensions rejected with SchemaError").
func decode(path string, data []byte) (*pattern.Pattern, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return pattern.DecodeJSON(data)
	case ".yaml", ".yml":
		return pattern.DecodeDocument(data)
	default:
		return nil, &apexerr.SchemaError{Path: path, Message: "unrecognized pattern file extension"}
	}
}
