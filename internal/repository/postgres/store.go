package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// ChangeChannel is the LISTEN/NOTIFY channel; the payload is the collection name.
const ChangeChannel = "farm_changes"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS farm_documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		doc JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS farm_documents_collection_idx ON farm_documents (collection)`,
}

// Store keeps every collection in one JSONB document table.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPool opens a pool and retries the ping while the database starts up.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("database pool init failed: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			pool.Close()
			return nil, fmt.Errorf("database ping failed after retries: %w", err)
		}
		time.Sleep(1500 * time.Millisecond)
	}
}

// NewStore wraps pool. Call EnsureSchema before first use.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// EnsureSchema creates the document table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// ReadAll returns the documents of collection, ordered by the orderBy
// document field descending when set.
func (s *Store) ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if orderBy != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, doc FROM farm_documents WHERE collection = $1 ORDER BY doc->>$2 DESC NULLS LAST, created_at DESC`,
			collection, orderBy)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, doc FROM farm_documents WHERE collection = $1 ORDER BY created_at`,
			collection)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		rec, err := decodeDocument(id, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return records, nil
}

// Insert stores record and notifies listeners in the same transaction.
func (s *Store) Insert(ctx context.Context, collection string, record models.Record) (string, error) {
	doc := record.Clone()
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	delete(doc, "_id")
	doc["id"] = id
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO farm_documents (collection, id, doc) VALUES ($1, $2, $3)`,
		collection, id, payload); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, ChangeChannel, collection); err != nil {
		return "", fmt.Errorf("notify %s: %w", collection, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

// Subscribe listens on ChangeChannel over a dedicated connection so that
// long-lived listeners never hold pool slots. It blocks until ctx is done.
func (s *Store) Subscribe(ctx context.Context, collection string, fn func([]models.Record)) error {
	conn, err := pgx.ConnectConfig(ctx, s.pool.Config().ConnConfig)
	if err != nil {
		return fmt.Errorf("listener connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload != collection {
			continue
		}
		records, err := s.ReadAll(ctx, collection, models.OrderField(collection))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("re-read after notification failed", zap.String("collection", collection), zap.Error(err))
			continue
		}
		fn(records)
	}
}

// Close releases the pool.
func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func decodeDocument(id string, raw []byte) (models.Record, error) {
	rec := models.Record{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.ID() == "" {
		rec["id"] = id
	}
	return rec, nil
}
