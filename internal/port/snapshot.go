package port

import "studyrag/internal/domain"

// SnapshotStore persists the built corpus index between runs.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(snap *domain.Snapshot) error

	// Load returns the stored snapshot, or nil when there is none.
	Load() (*domain.Snapshot, error)

	// Delete removes the stored snapshot. Deleting a missing snapshot is not an error.
	Delete() error
}
