// Package ledger holds the append-only audit event store. Committed events
// are never mutated or deleted; the only write is Append, and it either
// commits a fully validated event or nothing.
package ledger

import (
	"context"
	"time"

	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
)

// Store is the canonical audit ledger.
type Store interface {
	// Append validates the event against ledger policy and commits it.
	// A successful append is visible to Scan and Get before Append returns.
	Append(ctx context.Context, event *models.AuditEvent) (string, error)

	// Get returns the event with the given id, or a CodeNotFound error.
	Get(ctx context.Context, id string) (*models.AuditEvent, error)

	// Scan returns events within the optional time bounds, ordered by
	// timestamp descending with ties broken by insertion order (most recent
	// insert first).
	Scan(ctx context.Context, r ScanRange) ([]models.AuditEvent, error)
}

// ScanRange bounds a scan by event timestamp. Nil bounds are open.
type ScanRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether ts falls inside the range.
func (r ScanRange) Contains(ts time.Time) bool {
	if r.Start != nil && ts.Before(*r.Start) {
		return false
	}
	if r.End != nil && ts.After(*r.End) {
		return false
	}
	return true
}

// ErrNotFound keeps ledger 404s consistent across the in-memory and postgres
// implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "audit event not found")
