package host

import (
	"context"
	"errors"
	"fmt"
)

// Principal identifies a party able to approve calls: an invoice owner, a
// depositor, a borrower, or a contract instance itself.
type Principal string

func (p Principal) String() string { return string(p) }

// ErrUnauthorized is returned when a principal has not approved the current call.
var ErrUnauthorized = errors.New("principal has not approved the call")

// Authorizer verifies that a principal approved the current call.
type Authorizer interface {
	Authorize(ctx context.Context, p Principal) error
}

type approvalsKey struct{}

// WithApprovals attaches approving principals to ctx. Approvals accumulate
// across nested calls.
func WithApprovals(ctx context.Context, principals ...Principal) context.Context {
	existing := Approvals(ctx)
	merged := make([]Principal, 0, len(existing)+len(principals))
	merged = append(merged, existing...)
	merged = append(merged, principals...)
	return context.WithValue(ctx, approvalsKey{}, merged)
}

// Approvals returns the principals that approved the call carried by ctx.
func Approvals(ctx context.Context) []Principal {
	ps, _ := ctx.Value(approvalsKey{}).([]Principal)
	return ps
}

// ContextAuthorizer authorizes principals listed by WithApprovals.
type ContextAuthorizer struct{}

// Authorize implements Authorizer.
func (ContextAuthorizer) Authorize(ctx context.Context, p Principal) error {
	for _, approved := range Approvals(ctx) {
		if approved == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnauthorized, p)
}
