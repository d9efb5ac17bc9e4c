package ports

import "context"

// RecordStore keeps one audit record per successfully programmed unit.
type RecordStore interface {
	// Exists reports whether a record for unitID is on file.
	Exists(ctx context.Context, unitID string) (bool, error)

	// Create writes the record for unitID. Callers never create the same
	// record twice; implementations may overwrite.
	Create(ctx context.Context, unitID, content string) error
}
