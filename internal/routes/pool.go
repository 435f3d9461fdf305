package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/pool"
)

// RegisterPoolRoutes wires lending pool endpoints.
func RegisterPoolRoutes(r fiber.Router, h *pool.Handler) {
	group := r.Group("/pool")
	group.Get("/", h.Settings)
	group.Post("/init", h.Init)
	group.Post("/deposit", h.Deposit)
	group.Post("/borrow", h.Borrow)
	group.Get("/balance", h.Balance)
}
