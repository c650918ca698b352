// Package store defines the pattern persistence interface described in
// §6 ("an opaque... indexed relational table") and provides two
// implementations: an in-memory store the core's own tests run
// against, and a SQLite-backed store for anything that needs the
// module to actually run. The interface shape and functional-options
// style follow the teacher's Storage/FileStorage pairing.
package store

import (
	"context"

	"github.com/apex-run/apex-core/internal/pattern"
)

// Store is the opaque pattern persistence collaborator the lookup
// orchestrator's writer path uses. Readers go through the in-memory
// index snapshots instead; Store exists for load, ingest, and
// usage-count persistence.
type Store interface {
	// Get returns the pattern with the given id, or a
	// *apexerr.NotFoundError if none exists.
	Get(ctx context.Context, id string) (*pattern.Pattern, error)
	// Put inserts or replaces a pattern record.
	Put(ctx context.Context, p *pattern.Pattern) error
	// Delete removes a pattern record. Deleting an unknown id is not
	// an error.
	Delete(ctx context.Context, id string) error
	// All returns every stored pattern, with trust_score re-derived
	// from usage. Implementations do not run pattern.ValidateLoaded;
	// the lookup orchestrator skips records that fail it.
	All(ctx context.Context) ([]*pattern.Pattern, error)
	// Close releases any underlying resources.
	Close() error
}
