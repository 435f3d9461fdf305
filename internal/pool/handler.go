package pool

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/ledger"
)

// Handler exposes lending pool endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a pool handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initRequest struct {
	Admin        host.Principal `json:"admin"`
	TokenAddress host.Principal `json:"token_address"`
}

type depositRequest struct {
	From   host.Principal `json:"from"`
	Amount amount.Amount  `json:"amount"`
}

type borrowRequest struct {
	Borrower host.Principal `json:"borrower"`
	Amount   amount.Amount  `json:"amount"`
}

// Init configures the pool's admin and asset.
func (h *Handler) Init(c *fiber.Ctx) error {
	var req initRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Admin == "" || req.TokenAddress == "" {
		return fiber.NewError(http.StatusBadRequest, "admin and token_address are required")
	}
	if err := h.service.Init(c.UserContext(), req.Admin, req.TokenAddress); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(Settings{Admin: req.Admin, TokenAddress: req.TokenAddress})
}

// Settings returns the pool configuration.
func (h *Handler) Settings(c *fiber.Ctx) error {
	settings, err := h.service.Settings(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":       h.service.Address(),
		"admin":         settings.Admin,
		"token_address": settings.TokenAddress,
	})
}

// Deposit adds liquidity from an approving depositor.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.From == "" {
		return fiber.NewError(http.StatusBadRequest, "from is required")
	}
	if err := h.service.Deposit(c.UserContext(), req.From, req.Amount); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"from": req.From, "amount": req.Amount})
}

// Borrow pays out liquidity to an approving borrower.
func (h *Handler) Borrow(c *fiber.Ctx) error {
	var req borrowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Borrower == "" {
		return fiber.NewError(http.StatusBadRequest, "borrower is required")
	}
	if err := h.service.Borrow(c.UserContext(), req.Borrower, req.Amount); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"borrower": req.Borrower, "amount": req.Amount})
}

// Balance returns the liquidity held by the pool.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, host.ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyInitialized), errors.Is(err, ErrNotInitialized):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientLiquidity):
		return fiber.NewError(http.StatusUnprocessableEntity, ErrInsufficientLiquidity.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, "insufficient funds")
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return fiber.NewError(http.StatusConflict, "duplicate transaction")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
