// Package pgvector implements storage.VectorIndex on PostgreSQL with the
// pgvector extension. Similarity search uses the cosine distance operator
// (<=>), which reports distances in [0, 2] like every other backend.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/storage"
)

var (
	// ErrDSNRequired is returned when no connection string is configured.
	ErrDSNRequired = errors.New("postgres DSN required")

	// ErrInvalidDimensions is returned when the vector dimension is not positive.
	ErrInvalidDimensions = errors.New("vector dimensions must be positive")
)

// Config holds connection settings for the pgvector index.
type Config struct {
	DSN        string
	Table      string // defaults to "embedding_records"
	Dimensions int
	MaxConns   int
}

// Index implements storage.VectorIndex backed by PostgreSQL.
type Index struct {
	db     *sql.DB
	table  string
	dims   int
	logger *slog.Logger
}

var _ storage.VectorIndex = (*Index)(nil)

// Open connects to PostgreSQL, ensures the schema exists and returns the index.
func Open(ctx context.Context, cfg Config) (storage.VectorIndex, error) {
	return open(ctx, cfg)
}

func open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.DSN == "" {
		return nil, ErrDSNRequired
	}
	if cfg.Dimensions < 1 {
		return nil, ErrInvalidDimensions
	}
	if cfg.Table == "" {
		cfg.Table = "embedding_records"
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	idx := &Index{
		db:     db,
		table:  pq.QuoteIdentifier(cfg.Table),
		dims:   cfg.Dimensions,
		logger: slog.Default().With("component", "pgvector-index", "table", cfg.Table),
	}
	if err := idx.migrate(ctx, cfg.Table); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) migrate(ctx context.Context, rawTable string) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			source_text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL
		)`, i.table, i.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pq.QuoteIdentifier(rawTable+"_embedding_idx"), i.table),
	}
	for _, stmt := range statements {
		if _, err := i.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate pgvector schema: %w", err)
		}
	}
	return nil
}

// Close closes the database pool.
func (i *Index) Close() error {
	return i.db.Close()
}

func (i *Index) checkDims(vector []float32) error {
	if len(vector) != i.dims {
		return fmt.Errorf("%w: got %d, index has %d", storage.ErrDimensionMismatch, len(vector), i.dims)
	}
	return nil
}

// Upsert inserts records or replaces existing ones with the same ID.
func (i *Index) Upsert(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.PrepareRecords(records, time.Now().UTC()); err != nil {
		return err
	}
	return i.withTx(ctx, func(tx *sql.Tx) error {
		return i.insert(ctx, tx, records)
	})
}

// Replace deletes every row and inserts records in one transaction.
func (i *Index) Replace(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if err := storage.PrepareRecords(records, time.Now().UTC()); err != nil {
		return err
	}
	err := i.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, i.table)); err != nil {
			return err
		}
		return i.insert(ctx, tx, records)
	})
	if err == nil {
		i.logger.Info("replaced index contents", "records", len(records))
	}
	return err
}

func (i *Index) insert(ctx context.Context, tx *sql.Tx, records []*core.EmbeddingRecord) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, source_text, metadata, embedding, inserted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			source_text = EXCLUDED.source_text,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			inserted_at = EXCLUDED.inserted_at`, i.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		if err := i.checkDims(record.Vector); err != nil {
			return err
		}
		meta, err := marshalMetadata(record.Metadata)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			int64(record.Id),
			record.SourceText,
			meta,
			pgvector.NewVector(record.Vector),
			record.InsertedAt,
		)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", record.Id, err)
		}
	}
	return nil
}

// Delete removes records by ID.
func (i *Index) Delete(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	params := make([]int64, len(ids))
	for n, id := range ids {
		params[n] = int64(id)
	}
	_, err := i.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, i.table), pq.Array(params))
	return err
}

// Count returns the number of stored records.
func (i *Index) Count(ctx context.Context) (int, error) {
	var count int
	err := i.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, i.table)).Scan(&count)
	return count, err
}

// ForEach pages through records ordered by ID.
func (i *Index) ForEach(ctx context.Context, batchSize int, fn func([]*core.EmbeddingRecord) error) error {
	if batchSize < 1 {
		return storage.ErrInvalidQuery
	}
	query := fmt.Sprintf(`
		SELECT id, source_text, metadata, embedding, inserted_at, 0::float8
		FROM %s WHERE $1::bigint IS NULL OR id > $1 ORDER BY id LIMIT $2`, i.table)

	var cursor sql.NullInt64
	for {
		rows, err := i.db.QueryContext(ctx, query, cursor, batchSize)
		if err != nil {
			return err
		}
		neighbors, err := scanNeighbors(rows)
		if err != nil {
			return err
		}
		if len(neighbors) == 0 {
			return nil
		}
		batch := make([]*core.EmbeddingRecord, len(neighbors))
		for n, nb := range neighbors {
			batch[n] = nb.Record
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		cursor = sql.NullInt64{Int64: int64(batch[len(batch)-1].Id), Valid: true}
	}
}

// Query returns the topK nearest records by cosine distance.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]storage.Neighbor, error) {
	if topK < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if err := i.checkDims(vector); err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, source_text, metadata, embedding, inserted_at, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1, id
		LIMIT $2`, i.table),
		pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	return scanNeighbors(rows)
}

func scanNeighbors(rows *sql.Rows) ([]storage.Neighbor, error) {
	defer rows.Close()

	var results []storage.Neighbor
	for rows.Next() {
		var (
			id       int64
			meta     []byte
			vec      pgvector.Vector
			distance float64
			record   core.EmbeddingRecord
		)
		if err := rows.Scan(&id, &record.SourceText, &meta, &vec, &record.InsertedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		record.Id = core.ID(uint64(id))
		record.Vector = vec.Slice()
		record.InsertedAt = record.InsertedAt.UTC()
		if err := json.Unmarshal(meta, &record.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", storage.ErrSerializationFailed, err)
		}
		results = append(results, storage.Neighbor{Record: &record, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Index) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			i.logger.Warn("rollback failed", "err", rerr)
		}
		return err
	}
	return tx.Commit()
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", storage.ErrSerializationFailed, err)
	}
	return data, nil
}
