package ledger

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool for the Postgres ledger.
type PostgresConfig struct {
	DSN      string
	Table    string
	MaxConns int32
}

// querier is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps the ledger in one Postgres table. Each mutation is a
// single statement, so durability needs no extra care here.
type PostgresStore struct {
	pool  querier
	table string
}

// NewPostgresStore connects using cfg and ensures the ledger table exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("ledger.postgres_dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "exam_progress"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, table: table}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool querier, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "exam_progress"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ordinal   INTEGER PRIMARY KEY,
			label     TEXT NOT NULL,
			url       TEXT NOT NULL DEFAULT '',
			extracted BOOLEAN NOT NULL DEFAULT FALSE
		);`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure ledger table %s: %w", s.table, err)
	}
	return nil
}

// ResumePoint returns the highest ordinal present, 0 when the table is empty.
func (s *PostgresStore) ResumePoint(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(ordinal), 0) FROM %s;`, s.table)
	var highest int
	if err := s.pool.QueryRow(ctx, query).Scan(&highest); err != nil {
		return 0, fmt.Errorf("query resume point: %w", err)
	}
	return highest, nil
}

// PendingExtraction returns unextracted rows in ascending ordinal order.
func (s *PostgresStore) PendingExtraction(ctx context.Context) ([]Row, error) {
	query := fmt.Sprintf(
		`SELECT ordinal, label, url, extracted FROM %s WHERE NOT extracted ORDER BY ordinal;`,
		s.table,
	)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pending rows: %w", err)
	}
	defer rows.Close()

	var pending []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Ordinal, &row.Label, &row.URL, &row.Extracted); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending rows: %w", err)
	}
	return pending, nil
}

// Ordinals reports the set of ordinals present.
func (s *PostgresStore) Ordinals(ctx context.Context) (map[int]struct{}, error) {
	query := fmt.Sprintf(`SELECT ordinal FROM %s;`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ordinals: %w", err)
	}
	defer rows.Close()

	present := make(map[int]struct{})
	for rows.Next() {
		var ordinal int
		if err := rows.Scan(&ordinal); err != nil {
			return nil, fmt.Errorf("scan ordinal: %w", err)
		}
		present[ordinal] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ordinals: %w", err)
	}
	return present, nil
}

// Append inserts one unextracted row.
func (s *PostgresStore) Append(ctx context.Context, ordinal int, url string) error {
	if ordinal <= 0 {
		return fmt.Errorf("ordinal %d must be positive", ordinal)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (ordinal, label, url, extracted) VALUES ($1, $2, $3, FALSE) ON CONFLICT (ordinal) DO NOTHING;`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query, ordinal, Label(ordinal), url)
	if err != nil {
		return fmt.Errorf("append ledger row %d: %w", ordinal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateOrdinal, ordinal)
	}
	return nil
}

// MarkExtracted flips the completion flag for ordinal.
func (s *PostgresStore) MarkExtracted(ctx context.Context, ordinal int) error {
	query := fmt.Sprintf(
		`UPDATE %s SET extracted = TRUE WHERE ordinal = $1 AND url <> '';`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query, ordinal)
	if err != nil {
		return fmt.Errorf("mark ordinal %d extracted: %w", ordinal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ordinal %d not present or has no resolved URL", ordinal)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
