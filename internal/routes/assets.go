package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/ledger"
)

// RegisterAssetRoutes exposes asset balances. Issuance is only mounted in
// development, where there is no external asset issuer.
func RegisterAssetRoutes(r fiber.Router, h *AssetHandler, allowMint bool) {
	group := r.Group("/assets/:asset")
	group.Get("/balances/:principal", h.Balance)
	if allowMint {
		group.Post("/mint", h.Mint)
	}
}

// AssetHandler exposes ledger assets as tokens.
type AssetHandler struct {
	ledger ledger.Ledger
}

// NewAssetHandler builds an asset handler over l.
func NewAssetHandler(l ledger.Ledger) *AssetHandler {
	return &AssetHandler{ledger: l}
}

type assetMintRequest struct {
	To     host.Principal `json:"to"`
	Amount amount.Amount  `json:"amount"`
}

func (h *AssetHandler) client(c *fiber.Ctx) *ledger.TokenClient {
	return ledger.NewTokenClient(h.ledger, host.Principal(c.Params("asset")))
}

// Mint issues an amount of the asset to a principal.
func (h *AssetHandler) Mint(c *fiber.Ctx) error {
	var req assetMintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.To == "" {
		return fiber.NewError(http.StatusBadRequest, "to is required")
	}
	balance, err := h.client(c).Mint(c.UserContext(), req.To, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, "invalid amount")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"asset":     c.Params("asset"),
		"principal": req.To,
		"balance":   balance,
	})
}

// Balance returns a principal's holdings of the asset.
func (h *AssetHandler) Balance(c *fiber.Ctx) error {
	p := host.Principal(c.Params("principal"))
	balance, err := h.client(c).Balance(c.UserContext(), p)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"asset":     c.Params("asset"),
		"principal": p,
		"balance":   balance,
	})
}
