// Package postgres stores documents as JSONB rows in a single table keyed by
// collection and id.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/edu-content/pkg/educontent"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements educontent.DocumentStore using PostgreSQL
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL document store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens a pool for databaseURL. A non-empty schema is set as the search_path.
func Connect(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = schema
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the documents table and its indexes if they do not exist
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return educontent.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: document already exists: %w", operation, err)
		case "23502": // not_null_violation
			return fmt.Errorf("%s: required column %s is missing: %w", operation, pgErr.ColumnName, err)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("%s: invalid value: %w", operation, err)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required: %w", operation, err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s): %w", operation, pgErr.Message, pgErr.Code, err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store) Insert(ctx context.Context, collection string, doc *educontent.Document) error {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.Exec(ctx, query, collection, doc.ID, data, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return handlePostgresError("insert document", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*educontent.Document, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(s.db.QueryRow(ctx, query, collection, id))
	if err != nil {
		return nil, handlePostgresError("get document", err)
	}
	return doc, nil
}

// Patch merges fields into the stored JSON in a single statement
func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any, updatedAt time.Time) (*educontent.Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	query := `
		UPDATE documents SET data = data || $3::jsonb, updated_at = $4
		WHERE collection = $1 AND id = $2
		RETURNING id, data, created_at, updated_at`

	doc, err := scanDocument(s.db.QueryRow(ctx, query, collection, id, data, updatedAt))
	if err != nil {
		return nil, handlePostgresError("patch document", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return handlePostgresError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return educontent.ErrNotFound
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, q educontent.Query) ([]*educontent.Document, int, error) {
	where, args, err := buildWhere(collection, q.Filters)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, handlePostgresError("count documents", err)
	}

	query, args := buildSelect(where, args, q)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, handlePostgresError("find documents", err)
	}
	defer rows.Close()

	var docs []*educontent.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, handlePostgresError("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, handlePostgresError("find documents", err)
	}
	return docs, total, nil
}

func scanDocument(row pgx.Row) (*educontent.Document, error) {
	var (
		doc  educontent.Document
		data []byte
	)
	if err := row.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Fields = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return &doc, nil
}
