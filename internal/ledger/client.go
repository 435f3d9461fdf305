package ledger

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
)

// TokenClient exposes one asset of the ledger as a token: balances and
// transfers between principals.
type TokenClient struct {
	ledger Ledger
	asset  host.Principal
}

// NewTokenClient binds l to the asset at address asset.
func NewTokenClient(l Ledger, asset host.Principal) *TokenClient {
	return &TokenClient{ledger: l, asset: asset}
}

// AccountCode is the ledger account holding principal p's balance of asset.
// Both parts are escaped, so the only ':' in a holder code is the separator
// and distinct (asset, principal) pairs never share an account.
func AccountCode(asset, p host.Principal) string {
	return url.QueryEscape(asset.String()) + ":" + url.QueryEscape(p.String())
}

// IssuerCode is the account that funds issuance of asset. It contains no ':'
// and so cannot be the account of any holder.
func IssuerCode(asset host.Principal) string {
	return url.QueryEscape(asset.String()) + "#issuer"
}

// Asset returns the asset address.
func (c *TokenClient) Asset() host.Principal { return c.asset }

// Balance returns the holdings of p.
func (c *TokenClient) Balance(ctx context.Context, p host.Principal) (amount.Amount, error) {
	return c.ledger.Balance(ctx, AccountCode(c.asset, p))
}

// Transfer moves amt from one principal to another. The posting is keyed by
// the id of the surrounding call so a replayed call cannot post twice.
func (c *TokenClient) Transfer(ctx context.Context, from, to host.Principal, amt amount.Amount) error {
	_, err := c.ledger.Transfer(ctx, AccountCode(c.asset, from), AccountCode(c.asset, to), KindTransfer, clientTxID(ctx), amt)
	if err != nil {
		return fmt.Errorf("transfer %s %s -> %s: %w", amt, from, to, err)
	}
	return nil
}

// Mint issues amt of the asset to p.
func (c *TokenClient) Mint(ctx context.Context, to host.Principal, amt amount.Amount) (amount.Amount, error) {
	res, err := c.ledger.Issue(ctx, IssuerCode(c.asset), AccountCode(c.asset, to), clientTxID(ctx), amt)
	if err != nil {
		return amount.Zero, fmt.Errorf("mint %s to %s: %w", amt, to, err)
	}
	return res.ToBalance, nil
}

func clientTxID(ctx context.Context) string {
	if id := host.CallID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
