// Package postgres provides the Postgres-backed kalaam record store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
)

const (
	defaultTable = "kalaam"

	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var recordColumns = []string{
	"id",
	"title",
	"reciter",
	"poet",
	"masaib",
	"lyrics_urdu",
	"lyrics_eng",
	"yt_link",
	"source_url",
	"title_normalized",
	"fetched_at",
}

// Config controls the Postgres connection pool used for kalaam rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// RecordStore reads and writes kalaam rows.
type RecordStore struct {
	pool  pool
	table string
}

// NewRecordStore connects to Postgres using the provided config.
func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{pool: p, table: table}, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(p pool, table string) (*RecordStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (s *RecordStore) schema() []string {
	t := s.table
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id               BIGINT PRIMARY KEY,
	title            TEXT        NOT NULL,
	reciter          TEXT,
	poet             TEXT,
	masaib           TEXT,
	lyrics_urdu      TEXT,
	lyrics_eng       TEXT,
	yt_link          TEXT,
	source_url       TEXT        NOT NULL,
	title_normalized TEXT        NOT NULL DEFAULT '',
	fetched_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT chk_has_lyrics CHECK (
		coalesce(length(lyrics_urdu), 0) > 0 OR coalesce(length(lyrics_eng), 0) > 0
	)
)`, t),
		// tables created before search keys existed lack the column
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS title_normalized TEXT NOT NULL DEFAULT ''`, t),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS ux_%[1]s_source_url ON %[1]s (source_url)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS ix_%[1]s_title_trgm ON %[1]s USING gin (title gin_trgm_ops)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS ix_%[1]s_title_normalized_trgm ON %[1]s USING gin (title_normalized gin_trgm_ops)`, t),
	}
}

// EnsureSchema creates the extension, table, search key column and indexes
// when missing. It is safe to run on every start.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts the record or replaces every column of the row with the same id.
func (s *RecordStore) Upsert(ctx context.Context, record crawler.Record, fetchedAt time.Time) error {
	if !record.HasLyrics() {
		return fmt.Errorf("upsert id=%d: %w", record.ID, crawler.ErrNoLyrics)
	}
	query, args, err := psql.Insert(s.table).
		Columns(recordColumns...).
		Values(
			record.ID,
			record.Title,
			record.Reciter,
			record.Poet,
			record.Category,
			record.LyricsUrdu,
			record.LyricsRoman,
			record.MediaLink,
			record.SourceURL,
			record.TitleKey,
			fetchedAt.UTC(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
	title            = EXCLUDED.title,
	reciter          = EXCLUDED.reciter,
	poet             = EXCLUDED.poet,
	masaib           = EXCLUDED.masaib,
	lyrics_urdu      = EXCLUDED.lyrics_urdu,
	lyrics_eng       = EXCLUDED.lyrics_eng,
	yt_link          = EXCLUDED.yt_link,
	source_url       = EXCLUDED.source_url,
	title_normalized = EXCLUDED.title_normalized,
	fetched_at       = EXCLUDED.fetched_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert id=%d: %w", record.ID, mapError(err))
	}
	return nil
}

// Get loads the row with the given id.
func (s *RecordStore) Get(ctx context.Context, id int64) (crawler.Record, error) {
	query, args, err := psql.Select(recordColumns...).
		From(s.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return crawler.Record{}, fmt.Errorf("build get: %w", err)
	}
	record, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.Record{}, crawler.ErrNotFound
	}
	if err != nil {
		return crawler.Record{}, fmt.Errorf("get id=%d: %w", id, err)
	}
	return record, nil
}

// Search returns rows whose normalized title is trigram-similar to key, most
// similar first.
func (s *RecordStore) Search(ctx context.Context, key string, limit int) ([]crawler.Record, error) {
	out := []crawler.Record{}
	if key == "" || limit <= 0 {
		return out, nil
	}
	query, args, err := psql.Select(recordColumns...).
		From(s.table).
		Where(sq.Expr("title_normalized % ?", key)).
		OrderByClause("similarity(title_normalized, ?) DESC", key).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", key, err)
	}
	defer rows.Close()
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (crawler.Record, error) {
	var r crawler.Record
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Reciter,
		&r.Poet,
		&r.Category,
		&r.LyricsUrdu,
		&r.LyricsRoman,
		&r.MediaLink,
		&r.SourceURL,
		&r.TitleKey,
		&r.FetchedAt,
	)
	return r, err
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", crawler.ErrDuplicateSource, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w: %s", crawler.ErrNoLyrics, pgErr.ConstraintName)
	default:
		return err
	}
}
