package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/pkg/models"
)

// SQLStore keeps documents as JSON text in the `documents` table. Queries are
// written with `?` and rebound for the connected driver (sqlite3 or postgres).
type SQLStore struct {
	DB *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{DB: db}
}

type documentRow struct {
	ID     string `db:"id"`
	Fields string `db:"fields"`
}

func (s *SQLStore) IsEmpty(ctx context.Context, collection string) (bool, error) {
	var n int
	q := s.DB.Rebind(`SELECT COUNT(*) FROM documents WHERE collection = ?`)
	if err := s.DB.GetContext(ctx, &n, q, collection); err != nil {
		return false, wrap("isEmpty", collection, "", fmt.Errorf("count: %w", err))
	}
	return n == 0, nil
}

func (s *SQLStore) GetAll(ctx context.Context, collection string) ([]models.Document, error) {
	var rows []documentRow
	q := s.DB.Rebind(`
		SELECT id, fields
		FROM documents
		WHERE collection = ?
		ORDER BY seq ASC
	`)
	if err := s.DB.SelectContext(ctx, &rows, q, collection); err != nil {
		return nil, wrap("getAll", collection, "", fmt.Errorf("select: %w", err))
	}

	out := make([]models.Document, 0, len(rows))
	for _, r := range rows {
		fields, err := decodeFields([]byte(r.Fields))
		if err != nil {
			return nil, wrap("getAll", collection, r.ID, fmt.Errorf("decode fields: %w", err))
		}
		out = append(out, models.Document{ID: r.ID, Fields: fields})
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	var r documentRow
	q := s.DB.Rebind(`SELECT id, fields FROM documents WHERE collection = ? AND id = ?`)
	if err := s.DB.GetContext(ctx, &r, q, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get", collection, id, fmt.Errorf("select: %w", err))
	}
	fields, err := decodeFields([]byte(r.Fields))
	if err != nil {
		return nil, wrap("get", collection, id, fmt.Errorf("decode fields: %w", err))
	}
	return &models.Document{ID: r.ID, Fields: fields}, nil
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := s.set(ctx, collection, id, fields, merge); err != nil {
		return wrap("set", collection, id, err)
	}
	return nil
}

func (s *SQLStore) set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.GetContext(ctx, &existing,
		tx.Rebind(`SELECT fields FROM documents WHERE collection = ? AND id = ?`), collection, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = ""
	case err != nil:
		return fmt.Errorf("select existing: %w", err)
	}

	if merge && existing != "" {
		prev, err := decodeFields([]byte(existing))
		if err != nil {
			return fmt.Errorf("decode existing: %w", err)
		}
		fields = mergeFields(prev, fields)
	}
	b, err := encodeFields(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO documents (collection, id, seq, fields)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents WHERE collection = ?), ?)
		ON CONFLICT (collection, id) DO UPDATE SET
		  fields = excluded.fields
	`), collection, id, collection, string(b)); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.set(ctx, collection, id, fields, false); err != nil {
		return "", wrap("add", collection, id, err)
	}
	return id, nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	q := s.DB.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	if _, err := s.DB.ExecContext(ctx, q, collection, id); err != nil {
		return wrap("delete", collection, id, fmt.Errorf("delete: %w", err))
	}
	return nil
}

// Where filters in Go: the JSON operators of sqlite and postgres differ.
func (s *SQLStore) Where(ctx context.Context, collection, field string, value any) ([]models.Document, error) {
	docs, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filter(docs, field, value), nil
}
