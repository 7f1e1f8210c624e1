package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"secureupdate/internal/updates/models"
	"secureupdate/pkg/platform/sentinel"
	txcontext "secureupdate/pkg/platform/tx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS updates (
	model_id       TEXT PRIMARY KEY,
	key            TEXT NOT NULL,
	checksum       TEXT NOT NULL,
	cid            TEXT NOT NULL,
	update_version TEXT NOT NULL,
	iv             TEXT NOT NULL,
	tag            TEXT NOT NULL,
	encryption     TEXT NOT NULL,
	updated_at     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS contract_state (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	admin           TEXT NOT NULL,
	contract        TEXT NOT NULL,
	version         TEXT NOT NULL,
	instantiated_at INTEGER NOT NULL
);`

// SQLite persists the registry in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and creates the registry tables.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// DB exposes the handle so callers can open transactions on it.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the SQLite handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Put(ctx context.Context, modelID string, u *models.Update) error {
	query := `
		INSERT INTO updates (model_id, key, checksum, cid, update_version, iv, tag, encryption, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (model_id) DO UPDATE SET
			key = excluded.key,
			checksum = excluded.checksum,
			cid = excluded.cid,
			update_version = excluded.update_version,
			iv = excluded.iv,
			tag = excluded.tag,
			encryption = excluded.encryption,
			updated_at = excluded.updated_at
	`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		modelID, u.Key, u.Checksum, u.CID, u.UpdateVersion, u.IV, u.Tag, u.Encryption,
		time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("put update: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, modelID string) (*models.Update, error) {
	query := `
		SELECT model_id, key, checksum, cid, update_version, iv, tag, encryption
		FROM updates WHERE model_id = ?
	`
	var u models.Update
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, modelID).Scan(
		&u.ModelID, &u.Key, &u.Checksum, &u.CID, &u.UpdateVersion, &u.IV, &u.Tag, &u.Encryption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get update: %w", err)
	}
	return &u, nil
}

func (s *SQLite) SaveState(ctx context.Context, state *models.ContractState) error {
	query := `
		INSERT INTO contract_state (id, admin, contract, version, instantiated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		state.Admin, state.Contract, state.Version, state.InstantiatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save contract state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save contract state: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *SQLite) LoadState(ctx context.Context) (*models.ContractState, error) {
	query := `SELECT admin, contract, version, instantiated_at FROM contract_state WHERE id = 1`
	var (
		state  models.ContractState
		millis int64
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query).Scan(
		&state.Admin, &state.Contract, &state.Version, &millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load contract state: %w", err)
	}
	state.InstantiatedAt = time.UnixMilli(millis).UTC()
	return &state, nil
}
