// Package host runs contract calls against instance storage: each call is
// authorized through an Authorizer, executes inside one storage transaction,
// and publishes its events only once that transaction commits.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/invoice_pool/internal/storage"
)

// Env is one deployed contract instance.
type Env struct {
	address Principal
	store   storage.Store
	auth    Authorizer
	sink    EventSink
	logger  *slog.Logger
}

// Option customises an Env.
type Option func(*Env)

// WithAuthorizer replaces the default ContextAuthorizer.
func WithAuthorizer(a Authorizer) Option {
	return func(e *Env) { e.auth = a }
}

// WithEventSink sets where committed events go.
func WithEventSink(s EventSink) Option {
	return func(e *Env) { e.sink = s }
}

// WithLogger sets the logger used for call outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) { e.logger = l }
}

// NewEnv binds a contract instance address to its storage.
func NewEnv(address Principal, store storage.Store, opts ...Option) *Env {
	e := &Env{
		address: address,
		store:   store,
		auth:    ContextAuthorizer{},
		sink:    DiscardSink{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Address returns the instance's own principal.
func (e *Env) Address() Principal { return e.address }

// Invoke executes fn as a single transaction. If fn fails, no storage write
// survives and no event is published.
func (e *Env) Invoke(ctx context.Context, name string, fn func(*Call) error) error {
	callID := uuid.NewString()
	ctx = WithCallID(ctx, callID)

	var call *Call
	err := e.store.Update(ctx, string(e.address), func(tx storage.Tx) error {
		call = &Call{ctx: ctx, id: callID, env: e, tx: tx}
		return fn(call)
	})
	if err != nil {
		e.logger.Warn("call aborted",
			slog.String("contract", string(e.address)),
			slog.String("call", name),
			slog.String("call_id", callID),
			slog.Any("error", err),
		)
		return err
	}

	e.logger.Debug("call committed",
		slog.String("contract", string(e.address)),
		slog.String("call", name),
		slog.String("call_id", callID),
		slog.Int("events", len(call.events)),
	)

	if len(call.events) > 0 {
		if err := e.sink.Publish(ctx, call.events); err != nil {
			e.logger.Error("publish events", slog.String("call_id", callID), slog.Any("error", err))
		}
	}
	return nil
}

// View executes fn against a read-only snapshot. Events published by fn are dropped.
func (e *Env) View(ctx context.Context, fn func(*Call) error) error {
	return e.store.View(ctx, string(e.address), func(tx storage.Tx) error {
		return fn(&Call{ctx: ctx, env: e, tx: tx, readOnly: true})
	})
}

// Call is the execution context of one Invoke or View.
type Call struct {
	ctx      context.Context
	id       string
	env      *Env
	tx       storage.Tx
	events   []Event
	readOnly bool
}

// Context returns the call's context, carrying approvals and the call id.
func (c *Call) Context() context.Context { return c.ctx }

// ID returns the call id; empty for views.
func (c *Call) ID() string { return c.id }

// Address returns the principal of the contract instance being called.
func (c *Call) Address() Principal { return c.env.address }

// Tx exposes the call's storage transaction.
func (c *Call) Tx() storage.Tx { return c.tx }

// RequireAuth fails unless p approved the call.
func (c *Call) RequireAuth(p Principal) error {
	return c.env.auth.Authorize(c.ctx, p)
}

// Get reads key into dst.
func (c *Call) Get(key storage.Key, dst any) (bool, error) { return c.tx.Get(key, dst) }

// Set writes value under key.
func (c *Call) Set(key storage.Key, value any) error { return c.tx.Set(key, value) }

// Has reports whether key holds a value.
func (c *Call) Has(key storage.Key) (bool, error) { return c.tx.Has(key) }

// Publish queues an event for delivery after commit.
func (c *Call) Publish(topic string, p Principal, data any) {
	if c.readOnly {
		return
	}
	c.events = append(c.events, Event{
		Contract:  c.env.address,
		Topic:     topic,
		Principal: p,
		Data:      fmt.Sprint(data),
		CallID:    c.id,
		At:        time.Now().UTC(),
	})
}

type callIDKey struct{}

// WithCallID attaches a call id to ctx.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallID returns the id of the call carried by ctx, or "".
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
