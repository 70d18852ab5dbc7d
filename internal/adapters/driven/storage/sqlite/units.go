package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// ==================== Unit Store ====================

// unitStore implements driven.UnitStore.
type unitStore struct {
	store *Store
}

var _ driven.UnitStore = (*unitStore)(nil)

// SaveUnit stores or replaces a unit with its tokens and annotations.
func (s *unitStore) SaveUnit(ctx context.Context, unit *domain.Unit) error {
	if unit == nil || unit.ID == "" {
		return fmt.Errorf("%w: unit without id", domain.ErrInvalidInput)
	}
	status := unit.Status
	if status == "" {
		status = domain.UnitStatusInProgress
	}
	now := time.Now().UTC()
	updatedAt := unit.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO units (id, job_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				job_id = excluded.job_id,
				status = excluded.status,
				updated_at = excluded.updated_at
		`, unit.ID, unit.JobID, string(status), now, updatedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving unit: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM tokens WHERE unit_id = ?", unit.ID); err != nil {
			return fmt.Errorf("clearing tokens: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tokens (unit_id, idx, field, char_offset, char_length, text, pre, post, paragraph, sentence, context)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing token insert: %w", err)
		}
		defer stmt.Close()
		for _, tok := range unit.Tokens {
			if _, err := stmt.ExecContext(ctx, unit.ID, tok.Index, tok.Field, tok.Offset, tok.Length,
				tok.Text, tok.Pre, tok.Post, tok.Paragraph, tok.Sentence, tok.Context); err != nil {
				return fmt.Errorf("saving token %d: %w", tok.Index, err)
			}
		}

		return replaceAnnotations(ctx, tx, unit.ID, unit.Annotations)
	})
}

// GetUnit retrieves a unit with its tokens and annotations.
func (s *unitStore) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, job_id, status, updated_at FROM units WHERE id = ?
	`, id)

	var unit domain.Unit
	var status string
	if err := row.Scan(&unit.ID, &unit.JobID, &status, &unit.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning unit: %w", err)
	}
	unit.Status = domain.UnitStatus(status)

	tokens, err := s.tokens(ctx, id)
	if err != nil {
		return nil, err
	}
	unit.Tokens = tokens

	records, err := loadAnnotations(ctx, s.store.db, id)
	if err != nil {
		return nil, err
	}
	unit.Annotations = records

	return &unit, nil
}

// ListUnits returns units without their tokens and annotations, ordered by ID.
func (s *unitStore) ListUnits(ctx context.Context, jobID string) ([]domain.Unit, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, job_id, status, updated_at FROM units
		WHERE ? = '' OR job_id = ?
		ORDER BY id
	`, jobID, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		var unit domain.Unit
		var status string
		if err := rows.Scan(&unit.ID, &unit.JobID, &status, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		unit.Status = domain.UnitStatus(status)
		units = append(units, unit)
	}
	return units, rows.Err()
}

// DeleteUnit removes a unit; tokens, annotations and posts cascade.
func (s *unitStore) DeleteUnit(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM units WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting unit: %w", err)
	}
	return nil
}

func (s *unitStore) tokens(ctx context.Context, unitID string) ([]domain.Token, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT idx, field, char_offset, char_length, text, pre, post, paragraph, sentence, context
		FROM tokens WHERE unit_id = ? ORDER BY idx
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("loading tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var tok domain.Token
		if err := rows.Scan(&tok.Index, &tok.Field, &tok.Offset, &tok.Length, &tok.Text,
			&tok.Pre, &tok.Post, &tok.Paragraph, &tok.Sentence, &tok.Context); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

// ==================== Annotation Sink ====================

// annotationSink implements driven.AnnotationSink.
type annotationSink struct {
	store *Store
}

var _ driven.AnnotationSink = (*annotationSink)(nil)

// PostAnnotations replaces the unit's annotations, updates its status and
// appends to the delivery log.
func (s *annotationSink) PostAnnotations(ctx context.Context, unitID string, records []domain.WireAnnotation, status domain.UnitStatus) error {
	now := time.Now().UTC()
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE units SET status = ?, updated_at = ? WHERE id = ?
		`, string(status), now, unitID)
		if err != nil {
			return fmt.Errorf("updating unit: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("unit %s: %w", unitID, domain.ErrNotFound)
		}

		if err := replaceAnnotations(ctx, tx, unitID, records); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO annotation_posts (unit_id, status, record_count, posted_at)
			VALUES (?, ?, ?, ?)
		`, unitID, string(status), len(records), now)
		if err != nil {
			return fmt.Errorf("logging post: %w", err)
		}
		return nil
	})
}

// PostCount returns the number of deliveries logged for a unit.
func (s *Store) PostCount(ctx context.Context, unitID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM annotation_posts WHERE unit_id = ?", unitID).Scan(&n)
	return n, err
}

// ==================== Helpers ====================

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func replaceAnnotations(ctx context.Context, tx *sql.Tx, unitID string, records []domain.WireAnnotation) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE unit_id = ?", unitID); err != nil {
		return fmt.Errorf("clearing annotations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (unit_id, position, id, type, variable, value, color, field,
			char_offset, char_length, text, from_id, to_id, from_endpoint, to_endpoint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing annotation insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		from, err := marshalEndpoint(r.From)
		if err != nil {
			return err
		}
		to, err := marshalEndpoint(r.To)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, unitID, i, r.ID, string(r.Type), r.Variable, r.Value, r.Color,
			r.Field, nullInt(r.Offset), nullInt(r.Length), r.Text, r.FromID, r.ToID, from, to); err != nil {
			return fmt.Errorf("saving annotation %d: %w", i, err)
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadAnnotations(ctx context.Context, db queryer, unitID string) ([]domain.WireAnnotation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, type, variable, value, color, field, char_offset, char_length, text,
			from_id, to_id, from_endpoint, to_endpoint
		FROM annotations WHERE unit_id = ? ORDER BY position
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("loading annotations: %w", err)
	}
	defer rows.Close()

	var records []domain.WireAnnotation
	for rows.Next() {
		var r domain.WireAnnotation
		var typ string
		var offset, length sql.NullInt64
		var from, to sql.NullString
		if err := rows.Scan(&r.ID, &typ, &r.Variable, &r.Value, &r.Color, &r.Field, &offset, &length,
			&r.Text, &r.FromID, &r.ToID, &from, &to); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		r.Type = domain.AnnotationType(typ)
		if offset.Valid {
			r.Offset = domain.IntPtr(int(offset.Int64))
		}
		if length.Valid {
			r.Length = domain.IntPtr(int(length.Int64))
		}
		if r.From, err = unmarshalEndpoint(from); err != nil {
			return nil, err
		}
		if r.To, err = unmarshalEndpoint(to); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func marshalEndpoint(ep *domain.WireEndpoint) (sql.NullString, error) {
	if ep == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ep)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling endpoint: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalEndpoint(s sql.NullString) (*domain.WireEndpoint, error) {
	if !s.Valid || s.String == "" || s.String == jsonNull {
		return nil, nil
	}
	var ep domain.WireEndpoint
	if err := json.Unmarshal([]byte(s.String), &ep); err != nil {
		return nil, fmt.Errorf("unmarshalling endpoint: %w", err)
	}
	return &ep, nil
}
