// Package artifact stores rendered export files for later retrieval. The
// artifacts are derived data with a bounded lifetime; losing one never
// affects the ledger.
package artifact

import (
	"context"
	"time"

	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
)

// Artifact is one rendered export file.
type Artifact struct {
	ID        string
	Filename  string
	Format    models.ExportFormat
	Data      []byte
	CreatedAt time.Time
}

// Store holds artifacts until their TTL expires.
type Store interface {
	Put(ctx context.Context, a Artifact) error
	Get(ctx context.Context, id string) (*Artifact, error)
}

// ErrNotFound covers missing and expired artifacts alike.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "export artifact not found")
