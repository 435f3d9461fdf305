package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/invoice_pool/internal/auth"
	"github.com/congo-pay/invoice_pool/internal/config"
	"github.com/congo-pay/invoice_pool/internal/host"
	"github.com/congo-pay/invoice_pool/internal/invoice"
	"github.com/congo-pay/invoice_pool/internal/ledger"
	"github.com/congo-pay/invoice_pool/internal/middleware"
	"github.com/congo-pay/invoice_pool/internal/notification"
	"github.com/congo-pay/invoice_pool/internal/pool"
	"github.com/congo-pay/invoice_pool/internal/storage"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are nil when the configured backends do not need them.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  redis.UniversalClient
	Logger *slog.Logger
}

// Setup configures middlewares, builds the contract instances and registers
// all application routes.
func Setup(app *fiber.App, d Deps) error {
	store, err := newStore(d)
	if err != nil {
		return err
	}
	assets, err := newLedger(d)
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(d.Cfg.JWTSecret)
	if err != nil {
		return err
	}

	sink := notification.Fanout{notification.NewLoggerSink(d.Logger)}
	if d.Cache != nil {
		sink = append(sink, notification.NewStreamSink(d.Cache, d.Cfg.EventStream, 0))
	}
	envOpts := []host.Option{host.WithEventSink(sink), host.WithLogger(d.Logger)}

	invoices := invoice.NewService(host.NewEnv(host.Principal(d.Cfg.InvoiceContract), store, envOpts...))
	lending := pool.NewService(host.NewEnv(host.Principal(d.Cfg.PoolContract), store, envOpts...),
		func(token host.Principal) pool.AssetClient {
			return ledger.NewTokenClient(assets, token)
		})

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Idempotency runs after Approvals so stored responses are keyed by approver.
	api := app.Group("/api/v1", middleware.Approvals(gate))
	if d.Cache != nil {
		api.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterInvoiceRoutes(api, invoice.NewHandler(invoices))
	RegisterPoolRoutes(api, pool.NewHandler(lending))
	RegisterAssetRoutes(api, NewAssetHandler(assets), d.Cfg.IsDev())

	return nil
}

func newStore(d Deps) (storage.Store, error) {
	switch d.Cfg.StorageBackend {
	case config.BackendPostgres:
		if d.DB == nil {
			return nil, fmt.Errorf("database is required for %s storage", d.Cfg.StorageBackend)
		}
		return storage.NewPostgres(d.DB), nil
	case config.BackendRedis:
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required for %s storage", d.Cfg.StorageBackend)
		}
		return storage.NewRedis(d.Cache, storage.WithLockTTL(d.Cfg.StorageLockTTL)), nil
	case config.BackendMemory, "":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", d.Cfg.StorageBackend)
	}
}

func newLedger(d Deps) (ledger.Ledger, error) {
	switch d.Cfg.LedgerBackend {
	case config.BackendPostgres:
		if d.DB == nil {
			return nil, fmt.Errorf("database is required for %s ledger", d.Cfg.LedgerBackend)
		}
		return ledger.NewPostgresLedger(d.DB), nil
	case config.BackendMemory, "":
		return ledger.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", d.Cfg.LedgerBackend)
	}
}
