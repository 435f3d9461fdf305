package pool_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/ledger"
	"github.com/congo-pay/invoice_pool/internal/logging"
	"github.com/congo-pay/invoice_pool/internal/pool"
	"github.com/congo-pay/invoice_pool/internal/storage"
)

const (
	poolAddr host.Principal = "pool"
	usdc     host.Principal = "USDC"
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

type fixture struct {
	svc    *pool.Service
	ledger ledger.Ledger
	token  *ledger.TokenClient
	sink   *recordingSink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	led := ledger.NewInMemory()
	sink := &recordingSink{}
	env := host.NewEnv(poolAddr, storage.NewMemory(),
		host.WithEventSink(sink),
		host.WithLogger(logging.Discard()),
	)
	svc := pool.NewService(env, func(token host.Principal) pool.AssetClient {
		return ledger.NewTokenClient(led, token)
	})
	return fixture{svc: svc, ledger: led, token: ledger.NewTokenClient(led, usdc), sink: sink}
}

func (f fixture) balanceOf(t *testing.T, p host.Principal) string {
	t.Helper()
	bal, err := f.token.Balance(context.Background(), p)
	require.NoError(t, err)
	return bal.String()
}

func approved(principals ...host.Principal) context.Context {
	return host.WithApprovals(context.Background(), principals...)
}

func TestPoolScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.token.Mint(ctx, "B", amount.New(500))
	require.NoError(t, err)

	require.NoError(t, f.svc.Init(ctx, "M", usdc))

	require.NoError(t, f.svc.Deposit(approved("B"), "B", amount.New(500)))
	bal, err := f.svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "500", bal.String())

	err = f.svc.Borrow(approved("C"), "C", amount.New(600))
	assert.ErrorIs(t, err, pool.ErrInsufficientLiquidity)
	assert.Equal(t, "500", f.balanceOf(t, poolAddr))
	assert.Equal(t, "0", f.balanceOf(t, "C"))

	require.NoError(t, f.svc.Borrow(approved("C"), "C", amount.New(300)))
	bal, err = f.svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "200", bal.String())
	assert.Equal(t, "300", f.balanceOf(t, "C"))

	require.Len(t, f.sink.events, 2)
	assert.Equal(t, pool.TopicDeposit, f.sink.events[0].Topic)
	assert.Equal(t, host.Principal("B"), f.sink.events[0].Principal)
	assert.Equal(t, "500", f.sink.events[0].Data)
	assert.Equal(t, pool.TopicBorrow, f.sink.events[1].Topic)
	assert.Equal(t, "300", f.sink.events[1].Data)
}

func TestInitOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Init(ctx, "M", usdc))
	err := f.svc.Init(ctx, "X", "EURC")
	assert.ErrorIs(t, err, pool.ErrAlreadyInitialized)

	settings, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, host.Principal("M"), settings.Admin)
	assert.Equal(t, usdc, settings.TokenAddress)
}

func TestBorrowExactBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Init(ctx, "M", usdc))
	ledger.SeedBalance(f.ledger, ledger.AccountCode(usdc, poolAddr), amount.New(250))

	require.NoError(t, f.svc.Borrow(approved("C"), "C", amount.New(250)))
	assert.Equal(t, "0", f.balanceOf(t, poolAddr))
	assert.Equal(t, "250", f.balanceOf(t, "C"))
}

func TestBorrowRequiresBorrowerApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Init(ctx, "M", usdc))
	ledger.SeedBalance(f.ledger, ledger.AccountCode(usdc, poolAddr), amount.New(100))

	err := f.svc.Borrow(approved("B"), "C", amount.New(10))
	assert.ErrorIs(t, err, host.ErrUnauthorized)
	assert.Equal(t, "100", f.balanceOf(t, poolAddr))
}

func TestDepositRequiresDepositorApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Init(ctx, "M", usdc))
	ledger.SeedBalance(f.ledger, ledger.AccountCode(usdc, "B"), amount.New(100))

	err := f.svc.Deposit(ctx, "B", amount.New(10))
	assert.ErrorIs(t, err, host.ErrUnauthorized)
	assert.Equal(t, "100", f.balanceOf(t, "B"))
	assert.Empty(t, f.sink.events)
}

func TestConcurrentBorrowsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Init(ctx, "M", usdc))
	ledger.SeedBalance(f.ledger, ledger.AccountCode(usdc, poolAddr), amount.New(1_000))

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.Borrow(approved("C"), "C", amount.New(100))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, pool.ErrInsufficientLiquidity)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, "0", f.balanceOf(t, poolAddr))
	assert.Equal(t, "1000", f.balanceOf(t, "C"))
}

func TestBalanceBeforeInit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Balance(context.Background())
	assert.ErrorIs(t, err, pool.ErrNotInitialized)

	_, err = f.svc.Settings(context.Background())
	assert.ErrorIs(t, err, pool.ErrNotInitialized)
}

func TestAssetClientInteractions(t *testing.T) {
	type testCase struct {
		name      string
		init      bool
		call      func(svc *pool.Service) error
		setupMock func(m *pool.MockAssetClient)
		wantErr   error
	}

	transferFailed := errors.New("asset ledger unavailable")

	tests := []testCase{
		{
			name: "DepositBeforeInit",
			call: func(svc *pool.Service) error {
				return svc.Deposit(approved("B"), "B", amount.New(10))
			},
			wantErr: pool.ErrNotInitialized,
		},
		{
			name: "BorrowBeforeInit",
			call: func(svc *pool.Service) error {
				return svc.Borrow(approved("C"), "C", amount.New(10))
			},
			wantErr: pool.ErrNotInitialized,
		},
		{
			name: "DepositTransfersToPool",
			init: true,
			call: func(svc *pool.Service) error {
				return svc.Deposit(approved("B"), "B", amount.New(10))
			},
			setupMock: func(m *pool.MockAssetClient) {
				m.EXPECT().Transfer(gomock.Any(), host.Principal("B"), poolAddr, gomock.Any()).Return(nil)
			},
		},
		{
			name: "BorrowOverBalanceSkipsTransfer",
			init: true,
			call: func(svc *pool.Service) error {
				return svc.Borrow(approved("C"), "C", amount.New(11))
			},
			setupMock: func(m *pool.MockAssetClient) {
				m.EXPECT().Balance(gomock.Any(), poolAddr).Return(amount.New(10), nil)
			},
			wantErr: pool.ErrInsufficientLiquidity,
		},
		{
			name: "BorrowMapsLedgerOverdraw",
			init: true,
			call: func(svc *pool.Service) error {
				return svc.Borrow(approved("C"), "C", amount.New(5))
			},
			setupMock: func(m *pool.MockAssetClient) {
				m.EXPECT().Balance(gomock.Any(), poolAddr).Return(amount.New(10), nil)
				m.EXPECT().Transfer(gomock.Any(), poolAddr, host.Principal("C"), gomock.Any()).Return(ledger.ErrInsufficientFunds)
			},
			wantErr: pool.ErrInsufficientLiquidity,
		},
		{
			name: "BorrowTransferError",
			init: true,
			call: func(svc *pool.Service) error {
				return svc.Borrow(approved("C"), "C", amount.New(5))
			},
			setupMock: func(m *pool.MockAssetClient) {
				m.EXPECT().Balance(gomock.Any(), poolAddr).Return(amount.New(10), nil)
				m.EXPECT().Transfer(gomock.Any(), poolAddr, host.Principal("C"), gomock.Any()).Return(transferFailed)
			},
			wantErr: transferFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			client := pool.NewMockAssetClient(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(client)
			}

			sink := &recordingSink{}
			env := host.NewEnv(poolAddr, storage.NewMemory(), host.WithEventSink(sink), host.WithLogger(logging.Discard()))
			var resolved []host.Principal
			svc := pool.NewService(env, func(token host.Principal) pool.AssetClient {
				resolved = append(resolved, token)
				return client
			})
			if tt.init {
				require.NoError(t, svc.Init(context.Background(), "M", usdc))
			}

			err := tt.call(svc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, sink.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, []host.Principal{usdc}, resolved)
			assert.Len(t, sink.events, 1)
		})
	}
}
