package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	insertResponseCacheQuery = `
INSERT INTO response_cache (id, content, metadata, embedding, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET content = EXCLUDED.content,
    metadata = EXCLUDED.metadata,
    embedding = EXCLUDED.embedding`

	listResponseCacheQuery = `
SELECT id::text, content, metadata, embedding, created_at
FROM response_cache
ORDER BY created_at DESC
LIMIT $1`
)

// ResponseCachePostgres keeps semantic cache entries in the response_cache table.
// Search ranks the newest scanLimit rows by cosine distance in process.
type ResponseCachePostgres struct {
	db        *pgxpool.Pool
	scanLimit int
}

func NewResponseCachePostgres(db *pgxpool.Pool, scanLimit int) *ResponseCachePostgres {
	return &ResponseCachePostgres{
		db:        db,
		scanLimit: scanLimit,
	}
}

// Upsert inserts records in a single batch
func (r *ResponseCachePostgres) Upsert(ctx context.Context, records []entity.VectorRecord) error {
	batch := &pgx.Batch{}

	for _, rec := range records {
		id := uuid.New()
		if rec.ID != "" {
			parsed, err := uuid.Parse(rec.ID)
			if err != nil {
				return fmt.Errorf("parse record id %q: %w", rec.ID, err)
			}
			id = parsed
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		batch.Queue(insertResponseCacheQuery, id, rec.Content, metadata, rec.Vector, rec.CreatedAt)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert response cache entries: %w", err)
	}

	return nil
}

// Search returns the k nearest entries among the most recent rows.
func (r *ResponseCachePostgres) Search(ctx context.Context, vector []float32, k int) ([]entity.VectorMatch, error) {
	records, err := r.List(ctx, r.scanLimit)
	if err != nil {
		return nil, err
	}

	return rankByDistance(records, vector, k), nil
}

// List returns up to limit entries, newest first.
func (r *ResponseCachePostgres) List(ctx context.Context, limit int) ([]entity.VectorRecord, error) {
	rows, err := r.db.Query(ctx, listResponseCacheQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query response cache: %w", err)
	}
	defer rows.Close()

	return collectRecords(ctx, rows)
}

// rowScanner is the part of pgx.Rows the row loop needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectRecords reads response_cache rows. A row with broken metadata is
// logged and skipped so the rest of the scan still counts.
func collectRecords(ctx context.Context, rows rowScanner) ([]entity.VectorRecord, error) {
	var records []entity.VectorRecord
	for rows.Next() {
		var (
			rec      entity.VectorRecord
			metadata []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &metadata, &rec.Vector, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response cache row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				ctxzap.Warn(ctx, "skipping response cache row with malformed metadata",
					zap.String("id", rec.ID),
					zap.Error(err),
				)
				continue
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate response cache rows: %w", err)
	}

	return records, nil
}
