package ledger

import (
	"context"
	"errors"

	"github.com/congo-pay/invoice_pool/internal/amount"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidAmount is returned for negative postings.
	ErrInvalidAmount = errors.New("amount must not be negative")
)

const (
	// KindTransfer tags account-to-account postings.
	KindTransfer = "transfer"
	// KindIssue tags postings that create supply from an issuer account.
	KindIssue = "issue"
	// StatusCompleted represents a settled transaction.
	StatusCompleted = "completed"
)

// TransactionResult captures the outcome of a ledger posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   amount.Amount
	ToBalance     amount.Amount
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Unknown accounts have a zero balance; postings create the destination
// account on first use.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (amount.Amount, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amt amount.Amount) (TransactionResult, error)
	// Issue credits toCode from issuerCode, which is allowed to go negative.
	Issue(ctx context.Context, issuerCode, toCode, clientTxID string, amt amount.Amount) (TransactionResult, error)
}
