package invoice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
)

// Handler exposes invoice registry endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an invoice handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type mintRequest struct {
	Owner   host.Principal `json:"owner"`
	Amount  amount.Amount  `json:"amount"`
	DueDate uint64         `json:"due_date"`
}

type invoiceResponse struct {
	Invoice
	Status Status `json:"status"`
}

// Mint creates an invoice for the approving owner.
func (h *Handler) Mint(c *fiber.Ctx) error {
	var req mintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Owner == "" {
		return fiber.NewError(http.StatusBadRequest, "owner is required")
	}

	id, err := h.service.Mint(c.UserContext(), req.Owner, req.Amount, req.DueDate)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": id})
}

// Get returns one invoice.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inv, found, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	if !found {
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	}
	return c.Status(http.StatusOK).JSON(invoiceResponse{Invoice: inv, Status: inv.Status()})
}

// Repay marks an invoice repaid on behalf of its approving owner.
func (h *Handler) Repay(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Repay(c.UserContext(), id); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": id, "is_repaid": true})
}

func parseID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid invoice id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, host.ErrUnauthorized):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
