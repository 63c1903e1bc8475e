package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/memory"
)

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// The snapshot is written from the commit hook, so a failed write leaves
// both the database and the in-memory state unchanged.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

var buckets = []string{"goods", "operations", "properties"}

// NewStore opens (or creates) the database at path and hydrates the
// in-memory state from the last snapshot.
func NewStore(path string, types repositories.GoodsTypeRepository, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = "wms.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	s := &Store{db: db, path: path}
	snapshot, err := s.load(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	opts = append(opts, memory.WithCommitHook(s.persist))
	s.Store = memory.NewStore(types, opts...)
	s.ImportState(snapshot)
	return s, nil
}

func (s *Store) load(ctx context.Context) (memory.Snapshot, error) {
	var snapshot memory.Snapshot
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return snapshot, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return snapshot, fmt.Errorf("scan: %w", err)
		}
		var target any
		switch bucket {
		case "goods":
			target = &snapshot.Goods
		case "operations":
			target = &snapshot.Operations
		case "properties":
			target = &snapshot.Properties
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return snapshot, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return snapshot, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "goods":
			data, err = json.Marshal(snapshot.Goods)
		case "operations":
			data, err = json.Marshal(snapshot.Operations)
		case "properties":
			data, err = json.Marshal(snapshot.Properties)
		}
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
