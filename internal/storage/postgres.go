package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps instance storage in the instance_storage table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Update runs fn in a transaction holding an advisory lock on the instance,
// so concurrent calls against one instance are applied one at a time.
func (s *PostgresStore) Update(ctx context.Context, instance string, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin storage tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, instance); err != nil {
		return fmt.Errorf("lock instance %s: %w", instance, err)
	}

	ptx := &postgresTx{ctx: ctx, tx: tx, instance: instance}
	if err := fn(ptx); err != nil {
		return err
	}
	// Nothing to commit: the deferred rollback releases the lock. Calls that
	// only move assets on the ledger must not fail after the ledger committed.
	if !ptx.dirty {
		return nil
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit storage tx: %w", err)
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, instance string, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin storage tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	return fn(&postgresTx{ctx: ctx, tx: tx, instance: instance, readOnly: true})
}

type postgresTx struct {
	ctx      context.Context
	tx       pgx.Tx
	instance string
	readOnly bool
	dirty    bool
}

func (t *postgresTx) Get(key Key, dst any) (bool, error) {
	const query = `SELECT value FROM instance_storage WHERE instance = $1 AND key = $2`
	var raw []byte
	if err := t.tx.QueryRow(t.ctx, query, t.instance, key.String()).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, decode(key, raw, dst)
}

func (t *postgresTx) Set(key Key, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `INSERT INTO instance_storage (instance, key, value, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (instance, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		t.instance, key.String(), raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	t.dirty = true
	return nil
}

func (t *postgresTx) Has(key Key) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM instance_storage WHERE instance = $1 AND key = $2)`
	var exists bool
	if err := t.tx.QueryRow(t.ctx, query, t.instance, key.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return exists, nil
}
