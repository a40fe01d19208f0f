package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fleetaudit/internal/audit/models"
	"fleetaudit/internal/audit/policy"
	dErrors "fleetaudit/pkg/domain-errors"
)

// Schema is the append-only ledger table. seq breaks timestamp ties in scan
// order; there are no UPDATE or DELETE paths against this table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id             TEXT PRIMARY KEY,
	seq            BIGSERIAL,
	timestamp      TIMESTAMPTZ NOT NULL,
	actor          JSONB NOT NULL,
	action         TEXT NOT NULL,
	resource       JSONB NOT NULL,
	before_state   JSONB,
	after_state    JSONB,
	changes        JSONB,
	reason_code    TEXT NOT NULL DEFAULT '',
	reason_text    TEXT NOT NULL DEFAULT '',
	success        BOOLEAN NOT NULL,
	error_message  TEXT NOT NULL DEFAULT '',
	break_glass    JSONB,
	dual_control   JSONB,
	metadata       JSONB
);
CREATE INDEX IF NOT EXISTS audit_events_ts_seq_idx ON audit_events (timestamp DESC, seq DESC);
`

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	guard *policy.Guard
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB, guard *policy.Guard) *PostgresStore {
	return &PostgresStore{db: db, guard: guard}
}

// Append validates and commits one event. The primary key keeps event ids
// unique; a duplicate id surfaces as CodeConflict, the event untouched.
func (s *PostgresStore) Append(ctx context.Context, event *models.AuditEvent) (string, error) {
	if event == nil {
		return "", dErrors.New(dErrors.CodeValidation, "event is required")
	}

	e := *event
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := s.guard.Validate(&e); err != nil {
		return "", err
	}

	actor, err := json.Marshal(e.Actor)
	if err != nil {
		return "", fmt.Errorf("marshal actor: %w", err)
	}
	resource, err := json.Marshal(e.Resource)
	if err != nil {
		return "", fmt.Errorf("marshal resource: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, timestamp, actor, action, resource,
			before_state, after_state, changes,
			reason_code, reason_text, success, error_message,
			break_glass, dual_control, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID,
		e.Timestamp,
		actor,
		string(e.Action),
		resource,
		nullJSON(e.BeforeState),
		nullJSON(e.AfterState),
		nullJSON(e.Changes),
		e.ReasonCode,
		e.ReasonText,
		e.Success,
		e.ErrorMessage,
		nullJSON(e.BreakGlass),
		nullJSON(e.DualControlApprover),
		nullJSON(e.Metadata),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return "", dErrors.Newf(dErrors.CodeConflict, "audit event %s already recorded", e.ID)
		}
		return "", fmt.Errorf("insert audit event: %w", err)
	}
	return e.ID, nil
}

const selectColumns = `
	id, seq, timestamp, actor, action, resource,
	before_state, after_state, changes,
	reason_code, reason_text, success, error_message,
	break_glass, dual_control, metadata
`

// Get returns the event with the given id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.AuditEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM audit_events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return e, nil
}

// Scan returns time-bounded events ordered timestamp desc, seq desc.
func (s *PostgresStore) Scan(ctx context.Context, r ScanRange) ([]models.AuditEvent, error) {
	query := `SELECT ` + selectColumns + ` FROM audit_events WHERE 1=1`
	var args []any
	if r.Start != nil {
		args = append(args, *r.Start)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if r.End != nil {
		args = append(args, *r.End)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp DESC, seq DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.AuditEvent, error) {
	var (
		e           models.AuditEvent
		actor       []byte
		action      string
		resource    []byte
		beforeState []byte
		afterState  []byte
		changes     []byte
		breakGlass  []byte
		dualControl []byte
		metadata    []byte
	)

	err := row.Scan(
		&e.ID, &e.Seq, &e.Timestamp, &actor, &action, &resource,
		&beforeState, &afterState, &changes,
		&e.ReasonCode, &e.ReasonText, &e.Success, &e.ErrorMessage,
		&breakGlass, &dualControl, &metadata,
	)
	if err != nil {
		return nil, err
	}

	e.Action = models.Action(action)
	if err := json.Unmarshal(actor, &e.Actor); err != nil {
		return nil, fmt.Errorf("unmarshal actor: %w", err)
	}
	if err := json.Unmarshal(resource, &e.Resource); err != nil {
		return nil, fmt.Errorf("unmarshal resource: %w", err)
	}
	if err := unmarshalOptional(beforeState, &e.BeforeState); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(afterState, &e.AfterState); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(changes, &e.Changes); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(breakGlass, &e.BreakGlass); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(dualControl, &e.DualControlApprover); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(metadata, &e.Metadata); err != nil {
		return nil, err
	}
	return &e, nil
}

// nullJSON marshals v, mapping nil-ish values to SQL NULL so optional columns
// stay NULL rather than holding JSON null.
func nullJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return nil
		}
	case []models.ChangeDiff:
		if val == nil {
			return nil
		}
	case *models.BreakGlassDetails:
		if val == nil {
			return nil
		}
	case *models.DualControlApprover:
		if val == nil {
			return nil
		}
	case *models.Metadata:
		if val == nil {
			return nil
		}
	case nil:
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func unmarshalOptional[T any](data []byte, dst *T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal optional column: %w", err)
	}
	return nil
}
