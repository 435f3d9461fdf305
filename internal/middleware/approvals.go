package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/invoice_pool/internal/host"
)

const approvalHeader = "X-Approval"

// TokenVerifier resolves a signed approval token to the principal that issued it.
type TokenVerifier interface {
	Verify(token string) (host.Principal, error)
}

// Approvals verifies the bearer token and any X-Approval headers and attaches
// their subjects to the request context as approving principals. Requests
// without tokens pass through with no approvals; a bad token is rejected.
func Approvals(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tokens []string
		if authz := c.Get(fiber.HeaderAuthorization); authz != "" {
			if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
				return fiber.NewError(http.StatusUnauthorized, "unsupported authorization scheme")
			}
			tokens = append(tokens, strings.TrimSpace(authz[7:]))
		}
		for _, v := range c.GetReqHeaders()[approvalHeader] {
			if v = strings.TrimSpace(v); v != "" {
				tokens = append(tokens, v)
			}
		}
		if len(tokens) == 0 {
			return c.Next()
		}

		principals := make([]host.Principal, 0, len(tokens))
		for _, tok := range tokens {
			p, err := verifier.Verify(tok)
			if err != nil {
				return fiber.NewError(http.StatusUnauthorized, "invalid approval token")
			}
			principals = append(principals, p)
		}

		c.SetUserContext(host.WithApprovals(c.UserContext(), principals...))
		return c.Next()
	}
}
