package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/invoice_pool/internal/amount"
)

// PostgresLedger persists ledger entries in PostgreSQL ensuring double-entry balance.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees an account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the summed balance for the specified account code. Unknown
// accounts hold nothing.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (amount.Amount, error) {
	const query = `
        SELECT COALESCE(SUM(e.amount), 0)::text
        FROM entries e
        INNER JOIN accounts a ON a.id = e.account_id
        WHERE a.code = $1`
	var raw string
	if err := l.db.QueryRow(ctx, query, code).Scan(&raw); err != nil {
		return amount.Zero, err
	}
	return amount.Parse(raw)
}

// Transfer records a balanced posting between two accounts.
func (l *PostgresLedger) Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amt amount.Amount) (TransactionResult, error) {
	return l.post(ctx, fromCode, toCode, kind, clientTxID, amt, false)
}

// Issue records a posting from an issuer account that may go negative.
func (l *PostgresLedger) Issue(ctx context.Context, issuerCode, toCode, clientTxID string, amt amount.Amount) (TransactionResult, error) {
	return l.post(ctx, issuerCode, toCode, KindIssue, clientTxID, amt, true)
}

func (l *PostgresLedger) post(ctx context.Context, fromCode, toCode, kind, clientTxID string, amt amount.Amount, allowNegative bool) (TransactionResult, error) {
	if amt.IsNegative() {
		return TransactionResult{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransactionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Lock both accounts in code order so opposite transfers cannot deadlock.
	first, second := fromCode, toCode
	if second < first {
		first, second = second, first
	}
	ids := make(map[string]uuid.UUID, 2)
	for _, code := range []string{first, second} {
		if _, seen := ids[code]; seen {
			continue
		}
		id, err := lockAccount(ctx, tx, code)
		if err != nil {
			return TransactionResult{}, err
		}
		ids[code] = id
	}
	fromAccountID, toAccountID := ids[fromCode], ids[toCode]

	const existingTxQuery = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingTxQuery, clientTxID, kind).Scan(&existingTxID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return TransactionResult{}, err
		}
	} else {
		fromBal, err := balanceForAccount(ctx, tx, fromAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		toBal, err := balanceForAccount(ctx, tx, toAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		return TransactionResult{TransactionID: existingTxID.String(), FromBalance: fromBal, ToBalance: toBal}, ErrDuplicateTransaction
	}

	if !allowNegative {
		fromBalance, err := balanceForAccount(ctx, tx, fromAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		if fromBalance.Cmp(amt) < 0 {
			return TransactionResult{}, ErrInsufficientFunds
		}
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, StatusCompleted); err != nil {
		return TransactionResult{}, err
	}

	const entryInsert = `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4::numeric)`
	if _, err := tx.Exec(ctx, entryInsert, uuid.New(), txID, fromAccountID, "-"+amt.String()); err != nil {
		return TransactionResult{}, err
	}
	if _, err := tx.Exec(ctx, entryInsert, uuid.New(), txID, toAccountID, amt.String()); err != nil {
		return TransactionResult{}, err
	}

	fromBal, err := balanceForAccount(ctx, tx, fromAccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	toBal, err := balanceForAccount(ctx, tx, toAccountID)
	if err != nil {
		return TransactionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionResult{}, err
	}

	return TransactionResult{TransactionID: txID.String(), FromBalance: fromBal, ToBalance: toBal}, nil
}

// lockAccount creates the account if needed and row-locks it for the rest of tx.
func lockAccount(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code); err != nil {
		return uuid.Nil, fmt.Errorf("ensure account %s: %w", code, err)
	}
	const query = `SELECT id FROM accounts WHERE code = $1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, code).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("lock account %s: %w", code, err)
	}
	return id, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (amount.Amount, error) {
	const query = `SELECT COALESCE(SUM(amount), 0)::text FROM entries WHERE account_id = $1`
	var raw string
	if err := tx.QueryRow(ctx, query, accountID).Scan(&raw); err != nil {
		return amount.Zero, err
	}
	return amount.Parse(raw)
}
