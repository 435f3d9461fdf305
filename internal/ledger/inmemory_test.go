package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
)

func TestInMemoryLedger_TransferMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "usdc:a"); err != nil {
		t.Fatalf("ensure account a: %v", err)
	}

	SeedBalance(l, "usdc:a", amount.New(10_000))

	res, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "client-1", amount.New(1_500))
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if res.FromBalance.String() != "8500" {
		t.Fatalf("expected from balance 8500, got %s", res.FromBalance)
	}
	if res.ToBalance.String() != "1500" {
		t.Fatalf("expected to balance 1500, got %s", res.ToBalance)
	}

	ledgerImpl := l.(*inMemoryLedger)
	total, _ := ledgerImpl.balances["usdc:a"].Add(ledgerImpl.balances["usdc:b"])
	if total.String() != "10000" {
		t.Fatalf("ledger not balanced, total=%s", total)
	}
}

func TestInMemoryLedger_UnknownAccountIsEmpty(t *testing.T) {
	l := NewInMemory()
	bal, err := l.Balance(context.Background(), "usdc:nobody")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.IsZero() {
		t.Fatalf("expected zero balance, got %s", bal)
	}
}

func TestInMemoryLedger_Rejections(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedBalance(l, "usdc:a", amount.New(5_000))

	if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "dup", amount.New(500)); err != nil {
		t.Fatalf("initial transfer failed: %v", err)
	}
	if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "dup", amount.New(500)); err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "big", amount.New(4_501)); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "neg", amount.New(-1)); err != ErrInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, "zero", amount.Zero); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestInMemoryLedger_ConcurrentTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedBalance(l, "usdc:a", amount.New(100_000))
	ledgerImpl := l.(*inMemoryLedger)

	const workers = 10
	amt := amount.New(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("tx-%d", i)
			if _, err := l.Transfer(ctx, "usdc:a", "usdc:b", KindTransfer, txID, amt); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	total, _ := ledgerImpl.balances["usdc:a"].Add(ledgerImpl.balances["usdc:b"])
	if total.String() != "100000" {
		t.Fatalf("ledger not balanced after concurrency, total=%s", total)
	}
}

func TestInMemoryLedger_Issue(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	res, err := l.Issue(ctx, "usdc:issuer", "usdc:a", "mint-1", amount.New(2_000))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if res.ToBalance.String() != "2000" {
		t.Fatalf("expected balance 2000, got %s", res.ToBalance)
	}
	if res.FromBalance.String() != "-2000" {
		t.Fatalf("expected issuer balance -2000, got %s", res.FromBalance)
	}

	if _, err := l.Issue(ctx, "usdc:issuer", "usdc:a", "mint-1", amount.New(2_000)); err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate issue error, got %v", err)
	}
}

func TestTokenClient(t *testing.T) {
	l := NewInMemory()
	usdc := NewTokenClient(l, "USDC")
	ctx := context.Background()

	if _, err := usdc.Mint(ctx, "alice", amount.New(700)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	callCtx := host.WithCallID(ctx, "call-1")
	if err := usdc.Transfer(callCtx, "alice", "bob", amount.New(200)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := usdc.Transfer(callCtx, "alice", "bob", amount.New(200)); err == nil {
		t.Fatal("expected replayed call to be rejected")
	}

	bob, err := usdc.Balance(ctx, "bob")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bob.String() != "200" {
		t.Fatalf("expected bob 200, got %s", bob)
	}

	other, err := NewTokenClient(l, "EURC").Balance(ctx, "bob")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !other.IsZero() {
		t.Fatalf("assets must not share balances, got %s", other)
	}
}

func TestAccountCodesAreUnambiguous(t *testing.T) {
	pairs := [][2]host.Principal{
		{"USDC", "B"},
		{"USDC", "issuer"},
		{"USDC", "x:y"},
		{"USDC:x", "y"},
		{"USDC#issuer", ""},
		{"USDC", "#issuer"},
		{"US DC", "a"},
		{"US+DC", "a"},
		{"USDC", "a%3Ab"},
		{"USDC", "a:b"},
	}
	seen := make(map[string][2]host.Principal)
	for _, pair := range pairs {
		code := AccountCode(pair[0], pair[1])
		if prev, dup := seen[code]; dup {
			t.Fatalf("pairs %v and %v share account %q", prev, pair, code)
		}
		seen[code] = pair
	}
	for _, asset := range []host.Principal{"USDC", "USDC:x", "USDC#issuer"} {
		code := IssuerCode(asset)
		if prev, dup := seen[code]; dup {
			t.Fatalf("issuer of %s shares account %q with holder %v", asset, code, prev)
		}
		seen[code] = [2]host.Principal{asset, "#issuer"}
	}
}

func TestTokenClient_HoldersNeverShareIssuerOrForeignAccounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	usdc := NewTokenClient(l, "USDC")

	if _, err := usdc.Mint(ctx, "B", amount.New(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := NewTokenClient(l, "USDC:x").Mint(ctx, "y", amount.New(7)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	for _, p := range []host.Principal{"issuer", "x:y", "#issuer"} {
		bal, err := usdc.Balance(ctx, p)
		if err != nil {
			t.Fatalf("balance %s: %v", p, err)
		}
		if !bal.IsZero() {
			t.Fatalf("expected %q to hold nothing, got %s", p, bal)
		}
	}
}
