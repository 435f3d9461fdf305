package ledger

import (
	"context"
	"sync"

	"github.com/congo-pay/invoice_pool/internal/amount"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]amount.Amount
	transactions map[string]TransactionResult
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:     make(map[string]amount.Amount),
		transactions: make(map[string]TransactionResult),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = amount.Zero
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (amount.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[code], nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amt amount.Amount) (TransactionResult, error) {
	return l.post(fromCode, toCode, kind, clientTxID, amt, false)
}

func (l *inMemoryLedger) Issue(_ context.Context, issuerCode, toCode, clientTxID string, amt amount.Amount) (TransactionResult, error) {
	return l.post(issuerCode, toCode, KindIssue, clientTxID, amt, true)
}

func (l *inMemoryLedger) post(fromCode, toCode, kind, clientTxID string, amt amount.Amount, allowNegative bool) (TransactionResult, error) {
	if amt.IsNegative() {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := kind + ":" + clientTxID
	if res, exists := l.transactions[key]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance := l.balances[fromCode]
	if !allowNegative && fromBalance.Cmp(amt) < 0 {
		return TransactionResult{}, ErrInsufficientFunds
	}

	if fromCode == toCode {
		res := TransactionResult{TransactionID: key, FromBalance: fromBalance, ToBalance: fromBalance}
		l.transactions[key] = res
		return res, nil
	}

	fromBalance, err := fromBalance.Sub(amt)
	if err != nil {
		return TransactionResult{}, err
	}
	toBalance, err := l.balances[toCode].Add(amt)
	if err != nil {
		return TransactionResult{}, err
	}

	l.balances[fromCode] = fromBalance
	l.balances[toCode] = toBalance

	res := TransactionResult{
		TransactionID: key,
		FromBalance:   fromBalance,
		ToBalance:     toBalance,
	}
	l.transactions[key] = res
	return res, nil
}
