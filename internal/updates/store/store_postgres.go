package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"secureupdate/internal/updates/models"
	"secureupdate/pkg/platform/sentinel"
	txcontext "secureupdate/pkg/platform/tx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS updates (
	model_id       BYTEA PRIMARY KEY,
	key            BYTEA NOT NULL,
	checksum       BYTEA NOT NULL,
	cid            BYTEA NOT NULL,
	update_version BYTEA NOT NULL,
	iv             BYTEA NOT NULL,
	tag            BYTEA NOT NULL,
	encryption     BYTEA NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS contract_state (
	id              SMALLINT PRIMARY KEY CHECK (id = 1),
	admin           TEXT NOT NULL,
	contract        TEXT NOT NULL,
	version         TEXT NOT NULL,
	instantiated_at TIMESTAMPTZ NOT NULL
);`

// Postgres persists the registry in PostgreSQL. Update fields are stored as
// BYTEA so any string, NUL bytes included, round-trips exactly. Writes join
// the transaction carried in the context when there is one.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the registry tables if they are missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", classifyPostgresErr(err))
	}
	return nil
}

func (s *Postgres) Put(ctx context.Context, modelID string, u *models.Update) error {
	query := `
		INSERT INTO updates (model_id, key, checksum, cid, update_version, iv, tag, encryption, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (model_id) DO UPDATE SET
			key = EXCLUDED.key,
			checksum = EXCLUDED.checksum,
			cid = EXCLUDED.cid,
			update_version = EXCLUDED.update_version,
			iv = EXCLUDED.iv,
			tag = EXCLUDED.tag,
			encryption = EXCLUDED.encryption,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		[]byte(modelID), []byte(u.Key), []byte(u.Checksum), []byte(u.CID),
		[]byte(u.UpdateVersion), []byte(u.IV), []byte(u.Tag), []byte(u.Encryption))
	if err != nil {
		return fmt.Errorf("put update: %w", classifyPostgresErr(err))
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, modelID string) (*models.Update, error) {
	query := `
		SELECT model_id, key, checksum, cid, update_version, iv, tag, encryption
		FROM updates WHERE model_id = $1
	`
	var u models.Update
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, []byte(modelID)).Scan(
		&u.ModelID, &u.Key, &u.Checksum, &u.CID, &u.UpdateVersion, &u.IV, &u.Tag, &u.Encryption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get update: %w", classifyPostgresErr(err))
	}
	return &u, nil
}

func (s *Postgres) SaveState(ctx context.Context, state *models.ContractState) error {
	query := `
		INSERT INTO contract_state (id, admin, contract, version, instantiated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		state.Admin, state.Contract, state.Version, state.InstantiatedAt)
	if err != nil {
		return fmt.Errorf("save contract state: %w", classifyPostgresErr(err))
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

func (s *Postgres) LoadState(ctx context.Context) (*models.ContractState, error) {
	query := `SELECT admin, contract, version, instantiated_at FROM contract_state WHERE id = 1`
	var state models.ContractState
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query).Scan(
		&state.Admin, &state.Contract, &state.Version, &state.InstantiatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load contract state: %w", classifyPostgresErr(err))
	}
	return &state, nil
}

// classifyPostgresErr marks connection failures as sentinel.ErrUnavailable.
// Both lib/pq and pgx driver errors are recognized.
func classifyPostgresErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pqErr.Message)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pgErr.Message)
	}
	return err
}
