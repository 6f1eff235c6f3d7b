package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranakart/kiranakart-backend/api/controllers"
	"github.com/kiranakart/kiranakart-backend/api/middleware"
	"github.com/kiranakart/kiranakart-backend/internal/bulkorders"
	checkoutsvc "github.com/kiranakart/kiranakart-backend/internal/checkout"
	"github.com/kiranakart/kiranakart-backend/internal/distributors"
	"github.com/kiranakart/kiranakart-backend/internal/ledger"
	"github.com/kiranakart/kiranakart-backend/internal/orders"
	"github.com/kiranakart/kiranakart-backend/pkg/config"
	"github.com/kiranakart/kiranakart-backend/pkg/db"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
	"github.com/kiranakart/kiranakart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersRepo orders.Repository,
	bulkOrdersService bulkorders.Service,
	ledgerService ledger.Service,
	distributorRepo distributors.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleBuyer.String(), logg))
			r.Post("/", controllers.PlaceOrder(checkoutService, logg))
			r.Get("/", controllers.ListOrders(ordersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersRepo, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleDistributor.String(), logg))
			r.Route("/bulk-orders", func(r chi.Router) {
				r.Post("/", controllers.PlaceBulkOrder(bulkOrdersService, logg))
				r.Get("/", controllers.ListBulkOrders(bulkOrdersService, logg))
				r.Get("/{bulkOrderId}", controllers.BulkOrderDetail(bulkOrdersService, logg))
			})
			r.Get("/distributors/me/ledger", controllers.MyLedger(ledgerService, distributorRepo, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin.String(), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/orders-for-buyer", controllers.PlaceOrderForBuyer(checkoutService, logg))

		r.Route("/bulk-orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListBulkOrders(bulkOrdersService, logg))
			r.Get("/stats", controllers.AdminBulkOrderStats(bulkOrdersService, logg))
			r.Patch("/{bulkOrderId}", controllers.AdminUpdateBulkOrder(bulkOrdersService, logg))
			r.Delete("/{bulkOrderId}", controllers.AdminDeleteBulkOrder(bulkOrdersService, logg))
		})

		r.Route("/distributors/{distributorId}", func(r chi.Router) {
			r.Get("/ledger", controllers.AdminDistributorLedger(ledgerService, logg))
			r.Post("/adjustments", controllers.AdminCreateAdjustment(ledgerService, logg))
		})
	})

	return r
}
