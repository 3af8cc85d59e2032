package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drinkroute/distribution-backend/api/controllers"
	"github.com/drinkroute/distribution-backend/api/middleware"
	"github.com/drinkroute/distribution-backend/internal/counterparties"
	"github.com/drinkroute/distribution-backend/internal/debts"
	"github.com/drinkroute/distribution-backend/internal/dispatches"
	"github.com/drinkroute/distribution-backend/internal/incoming"
	"github.com/drinkroute/distribution-backend/internal/products"
	"github.com/drinkroute/distribution-backend/internal/returns"
	"github.com/drinkroute/distribution-backend/internal/sales"
	"github.com/drinkroute/distribution-backend/internal/shoporders"
	"github.com/drinkroute/distribution-backend/internal/shops"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/users"
	"github.com/drinkroute/distribution-backend/pkg/config"
	"github.com/drinkroute/distribution-backend/pkg/db"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	pkgredis "github.com/drinkroute/distribution-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs: idempotency records,
// write throttling and readiness.
type Store interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type sessionManager interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Products       products.Service
	Incoming       incoming.Service
	Dispatches     dispatches.Service
	ShopOrders     shoporders.Service
	Sales          sales.Service
	Returns        returns.Service
	Debts          debts.Service
	Stock          stock.Service
	Shops          shops.Service
	Counterparties counterparties.Service
	Users          users.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store Store,
	sessions sessionManager,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, store))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	writes := middleware.NewRateLimitPolicy("writes", cfg.App.WriteRateWindow, cfg.App.WriteRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RateLimit(writes, store, logg))
		if cfg.FeatureFlags.IdempotencyKeys {
			r.Use(middleware.Idempotency(store, logg))
		}

		r.Post("/auth/logout", controllers.AuthLogout(sessions, logg))

		r.Get("/products", controllers.ListProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svc.Products, logg))
		r.Get("/stock", controllers.StockHoldings(svc.Stock, logg))
		r.Get("/shops", controllers.ListShops(svc.Shops, logg))
		r.Get("/shops/{shopId}", controllers.GetShop(svc.Shops, logg))
		r.Get("/counterparties", controllers.ListCounterparties(svc.Counterparties, logg))

		r.Route("/dispatches", func(r chi.Router) {
			r.Get("/", controllers.ListDispatches(svc.Dispatches, logg))
			r.Get("/{dispatchId}", controllers.GetDispatch(svc.Dispatches, logg))
		})
		r.Route("/shop-orders", func(r chi.Router) {
			r.Get("/", controllers.ListShopOrders(svc.ShopOrders, logg))
			r.Get("/{orderId}", controllers.GetShopOrder(svc.ShopOrders, logg))
		})
		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.ListReturns(svc.Returns, logg))
			r.Get("/{returnId}", controllers.GetReturn(svc.Returns, logg))
		})
		r.Route("/counterparty-sales", func(r chi.Router) {
			r.Post("/", controllers.CreateCounterpartySale(svc.Sales, logg))
			r.Get("/", controllers.ListCounterpartySales(svc.Sales, logg))
			r.Get("/{saleId}", controllers.GetCounterpartySale(svc.Sales, logg))
		})
		r.Route("/debts/{partyType}/{partyId}/payments", func(r chi.Router) {
			r.Post("/", controllers.PayPartyDebt(svc.Debts, logg))
			r.Get("/", controllers.ListPartyPayments(svc.Debts, logg))
		})

		r.Route("/driver", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleDriver))
			r.Post("/dispatches/{dispatchId}/accept", controllers.DriverAcceptDispatch(svc.Dispatches, logg))
			r.Post("/shop-orders", controllers.DriverCreateShopOrder(svc.ShopOrders, logg))
			r.Post("/returns/manager", controllers.DriverCreateManagerReturn(svc.Returns, logg))
			r.Post("/returns/shop", controllers.DriverCreateShopReturn(svc.Returns, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(svc.Products, logg))
				r.Patch("/{productId}/price", controllers.AdminUpdateProductPrice(svc.Products, logg))
				r.Post("/{productId}/archive", controllers.AdminArchiveProduct(svc.Products, logg))
				r.Post("/{productId}/unarchive", controllers.AdminUnarchiveProduct(svc.Products, logg))
			})
			r.Route("/incoming", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateIncoming(svc.Incoming, logg))
				r.Get("/", controllers.AdminListIncomings(svc.Incoming, logg))
				r.Get("/{incomingId}", controllers.AdminGetIncoming(svc.Incoming, logg))
			})
			r.Post("/dispatches", controllers.AdminCreateDispatch(svc.Dispatches, logg))
			r.Route("/shops", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateShop(svc.Shops, logg))
				r.Get("/", controllers.ListShops(svc.Shops, logg))
			})
			r.Route("/counterparties", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCounterparty(svc.Counterparties, logg))
				r.Get("/", controllers.ListCounterparties(svc.Counterparties, logg))
				r.Get("/{counterpartyId}", controllers.GetCounterparty(svc.Counterparties, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateUser(svc.Users, logg))
				r.Get("/drivers", controllers.AdminListDrivers(svc.Users, logg))
				r.Get("/{userId}", controllers.AdminGetUser(svc.Users, logg))
			})
		})
	})

	return r
}
