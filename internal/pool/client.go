package pool

import (
	"context"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
)

//go:generate mockgen -source=client.go -destination=client_mock.go -package=pool

// AssetClient moves and reads balances of the asset the pool lends.
type AssetClient interface {
	Transfer(ctx context.Context, from, to host.Principal, amt amount.Amount) error
	Balance(ctx context.Context, p host.Principal) (amount.Amount, error)
}

// ClientFactory resolves the asset client for a token address.
type ClientFactory func(token host.Principal) AssetClient
