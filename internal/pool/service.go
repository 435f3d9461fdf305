package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/ledger"
	"github.com/congo-pay/invoice_pool/internal/storage"
)

const (
	TopicDeposit = "deposit"
	TopicBorrow  = "borrow"
)

var (
	ErrAlreadyInitialized    = errors.New("already initialized")
	ErrNotInitialized        = errors.New("not initialized")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
)

// Settings is the configuration written by Init.
type Settings struct {
	Admin        host.Principal `json:"admin"`
	TokenAddress host.Principal `json:"token_address"`
}

// Service is the lending pool of one contract instance. Liquidity is the
// asset balance held by the instance's own address; the pool keeps no share
// or debt records of its own.
type Service struct {
	env    *host.Env
	assets ClientFactory
}

// NewService builds a lending pool on env, resolving token clients with assets.
func NewService(env *host.Env, assets ClientFactory) *Service {
	return &Service{env: env, assets: assets}
}

// Address is the pool's own principal, which holds the pooled liquidity.
func (s *Service) Address() host.Principal { return s.env.Address() }

// Init records the admin and the lent asset. It succeeds once per instance;
// whoever calls it first becomes admin.
func (s *Service) Init(ctx context.Context, admin, token host.Principal) error {
	err := s.env.Invoke(ctx, "init", func(c *host.Call) error {
		initialized, err := c.Has(storage.Admin())
		if err != nil {
			return err
		}
		if initialized {
			return ErrAlreadyInitialized
		}
		if err := c.Set(storage.Admin(), admin); err != nil {
			return err
		}
		return c.Set(storage.TokenAddress(), token)
	})
	if err != nil {
		return fmt.Errorf("init pool: %w", err)
	}
	return nil
}

// Deposit moves amt from the depositor into the pool.
func (s *Service) Deposit(ctx context.Context, from host.Principal, amt amount.Amount) error {
	err := s.env.Invoke(ctx, "deposit", func(c *host.Call) error {
		if err := c.RequireAuth(from); err != nil {
			return err
		}
		client, err := s.client(c)
		if err != nil {
			return err
		}

		if err := client.Transfer(c.Context(), from, c.Address(), amt); err != nil {
			return err
		}

		c.Publish(TopicDeposit, from, amt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

// Borrow pays amt out of the pool to borrower if the pool holds at least amt.
// The liquidity check and the payout run in one call, so concurrent borrows
// against the same pool cannot both spend the same balance.
func (s *Service) Borrow(ctx context.Context, borrower host.Principal, amt amount.Amount) error {
	err := s.env.Invoke(ctx, "borrow", func(c *host.Call) error {
		if err := c.RequireAuth(borrower); err != nil {
			return err
		}
		client, err := s.client(c)
		if err != nil {
			return err
		}

		balance, err := client.Balance(c.Context(), c.Address())
		if err != nil {
			return err
		}
		if amt.Cmp(balance) > 0 {
			return ErrInsufficientLiquidity
		}

		if err := client.Transfer(c.Context(), c.Address(), borrower, amt); err != nil {
			// Another writer outside this instance drained the account first.
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return fmt.Errorf("%w: %v", ErrInsufficientLiquidity, err)
			}
			return err
		}

		c.Publish(TopicBorrow, borrower, amt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("borrow: %w", err)
	}
	return nil
}

// Balance returns the asset balance held by the pool, read from the asset ledger.
func (s *Service) Balance(ctx context.Context) (amount.Amount, error) {
	var balance amount.Amount
	err := s.env.View(ctx, func(c *host.Call) error {
		client, err := s.client(c)
		if err != nil {
			return err
		}
		balance, err = client.Balance(c.Context(), c.Address())
		return err
	})
	if err != nil {
		return amount.Zero, fmt.Errorf("pool balance: %w", err)
	}
	return balance, nil
}

// Settings returns the admin and token address recorded by Init.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.env.View(ctx, func(c *host.Call) error {
		found, err := c.Get(storage.Admin(), &out.Admin)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotInitialized
		}
		_, err = c.Get(storage.TokenAddress(), &out.TokenAddress)
		return err
	})
	if err != nil {
		return Settings{}, fmt.Errorf("pool settings: %w", err)
	}
	return out, nil
}

func (s *Service) client(c *host.Call) (AssetClient, error) {
	var token host.Principal
	found, err := c.Get(storage.TokenAddress(), &token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInitialized
	}
	return s.assets(token), nil
}
