package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/invoice"
)

// RegisterInvoiceRoutes wires invoice registry endpoints.
func RegisterInvoiceRoutes(r fiber.Router, h *invoice.Handler) {
	group := r.Group("/invoices")
	group.Post("/", h.Mint)
	group.Get("/:id", h.Get)
	group.Post("/:id/repay", h.Repay)
}
