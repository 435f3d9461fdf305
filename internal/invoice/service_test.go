package invoice_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/invoice"
	"github.com/congo-pay/invoice_pool/internal/logging"
	"github.com/congo-pay/invoice_pool/internal/storage"
)

type recordingSink struct {
	mu     sync.Mutex
	events []host.Event
}

func (s *recordingSink) Publish(_ context.Context, events []host.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func newService(t *testing.T) (*invoice.Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	env := host.NewEnv("invoices", storage.NewMemory(),
		host.WithEventSink(sink),
		host.WithLogger(logging.Discard()),
	)
	return invoice.NewService(env), sink
}

func approved(principals ...host.Principal) context.Context {
	return host.WithApprovals(context.Background(), principals...)
}

func TestMintGetRepay(t *testing.T) {
	svc, sink := newService(t)
	const due = uint64(1_767_225_600)

	id, err := svc.Mint(approved("A"), "A", amount.New(1000), due)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	inv, found, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(1), inv.ID)
	assert.Equal(t, host.Principal("A"), inv.Owner)
	assert.Equal(t, "1000", inv.Amount.String())
	assert.Equal(t, due, inv.DueDate)
	assert.False(t, inv.IsRepaid)
	assert.Equal(t, invoice.StatusUnpaid, inv.Status())

	require.NoError(t, svc.Repay(approved("A"), id))

	inv, _, err = svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, inv.IsRepaid)
	assert.Equal(t, invoice.StatusRepaid, inv.Status())

	require.Len(t, sink.events, 2)
	assert.Equal(t, invoice.TopicMint, sink.events[0].Topic)
	assert.Equal(t, host.Principal("A"), sink.events[0].Principal)
	assert.Equal(t, "1", sink.events[0].Data)
	assert.Equal(t, invoice.TopicRepay, sink.events[1].Topic)
}

func TestMintAssignsSequentialIDsAcrossOwners(t *testing.T) {
	svc, _ := newService(t)
	ctx := approved("A", "B")

	for i, owner := range []host.Principal{"A", "B", "A", "B"} {
		id, err := svc.Mint(ctx, owner, amount.New(int64(i)), 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), id)
	}

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestMintAcceptsUnvalidatedFields(t *testing.T) {
	svc, _ := newService(t)

	id, err := svc.Mint(approved("A"), "A", amount.New(-50), 0)
	require.NoError(t, err)

	inv, found, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "-50", inv.Amount.String())
	assert.Zero(t, inv.DueDate)
}

func TestMintRequiresOwnerApproval(t *testing.T) {
	svc, sink := newService(t)

	_, err := svc.Mint(approved("B"), "A", amount.New(1000), 0)
	assert.ErrorIs(t, err, host.ErrUnauthorized)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.events)
}

func TestGetUnknown(t *testing.T) {
	svc, _ := newService(t)

	_, found, err := svc.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepayUnknownFails(t *testing.T) {
	svc, sink := newService(t)

	err := svc.Repay(approved("A"), 7)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	_, found, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, sink.events)
}

func TestRepayByOtherPrincipalFails(t *testing.T) {
	svc, _ := newService(t)

	id, err := svc.Mint(approved("A"), "A", amount.New(1000), 10)
	require.NoError(t, err)

	err = svc.Repay(approved("B"), id)
	assert.ErrorIs(t, err, host.ErrUnauthorized)

	inv, _, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, inv.IsRepaid)
	assert.Equal(t, host.Principal("A"), inv.Owner)
}

func TestRepayIsIdempotent(t *testing.T) {
	svc, sink := newService(t)
	ctx := approved("A")

	id, err := svc.Mint(ctx, "A", amount.New(1000), 10)
	require.NoError(t, err)

	require.NoError(t, svc.Repay(ctx, id))
	require.NoError(t, svc.Repay(ctx, id))

	inv, _, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, inv.IsRepaid)

	var repays int
	for _, ev := range sink.events {
		if ev.Topic == invoice.TopicRepay {
			repays++
		}
	}
	assert.Equal(t, 2, repays)
}

func TestConcurrentMintsNeverShareIDs(t *testing.T) {
	svc, _ := newService(t)
	ctx := approved("A")

	const workers = 50
	ids := make([]uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.Mint(ctx, "A", amount.New(1), 0)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, uint64(i+1), id)
	}
}
