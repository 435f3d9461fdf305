package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/storage"
)

const (
	TopicMint  = "mint"
	TopicRepay = "repay"
)

// ErrNotFound is returned when no invoice was minted under an id.
var ErrNotFound = errors.New("invoice not found")

// Service is the invoice registry of one contract instance.
type Service struct {
	env *host.Env
}

// NewService builds an invoice registry on env.
func NewService(env *host.Env) *Service {
	return &Service{env: env}
}

// Mint records a new unpaid invoice for owner and returns its id. Ids are
// allocated 1, 2, 3, ... per instance. Amount and due date are stored as given.
func (s *Service) Mint(ctx context.Context, owner host.Principal, amt amount.Amount, dueDate uint64) (uint64, error) {
	var id uint64
	err := s.env.Invoke(ctx, "mint", func(c *host.Call) error {
		if err := c.RequireAuth(owner); err != nil {
			return err
		}

		current, _, err := storage.Get[uint64](c.Tx(), storage.TokenID())
		if err != nil {
			return err
		}
		id = current + 1

		inv := Invoice{
			ID:       id,
			Owner:    owner,
			Amount:   amt,
			DueDate:  dueDate,
			IsRepaid: false,
		}
		if err := c.Set(storage.Invoice(id), inv); err != nil {
			return err
		}
		if err := c.Set(storage.TokenID(), id); err != nil {
			return err
		}

		c.Publish(TopicMint, owner, id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mint invoice: %w", err)
	}
	return id, nil
}

// Get returns the invoice stored under id and whether it exists.
func (s *Service) Get(ctx context.Context, id uint64) (Invoice, bool, error) {
	var (
		inv   Invoice
		found bool
	)
	err := s.env.View(ctx, func(c *host.Call) error {
		var err error
		found, err = c.Get(storage.Invoice(id), &inv)
		return err
	})
	if err != nil {
		return Invoice{}, false, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, found, nil
}

// Repay marks the invoice as repaid. Only the stored owner can approve it.
// Repaying twice succeeds and emits a second event.
func (s *Service) Repay(ctx context.Context, id uint64) error {
	err := s.env.Invoke(ctx, "repay", func(c *host.Call) error {
		var inv Invoice
		found, err := c.Get(storage.Invoice(id), &inv)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		if err := c.RequireAuth(inv.Owner); err != nil {
			return err
		}

		// Settlement of the owed amount happens outside the registry.
		inv.IsRepaid = true
		if err := c.Set(storage.Invoice(id), inv); err != nil {
			return err
		}

		c.Publish(TopicRepay, inv.Owner, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("repay invoice %d: %w", id, err)
	}
	return nil
}

// Count returns the highest allocated invoice id, 0 if none.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.env.View(ctx, func(c *host.Call) error {
		var err error
		n, _, err = storage.Get[uint64](c.Tx(), storage.TokenID())
		return err
	})
	return n, err
}
