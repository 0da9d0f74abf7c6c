package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cycle3/supplysync-backend/api/controllers"
	webhookcontrollers "github.com/cycle3/supplysync-backend/api/controllers/webhooks"
	"github.com/cycle3/supplysync-backend/api/middleware"
	"github.com/cycle3/supplysync-backend/internal/links"
	"github.com/cycle3/supplysync-backend/internal/purchaseorders"
	"github.com/cycle3/supplysync-backend/internal/quotes"
	"github.com/cycle3/supplysync-backend/internal/suppliers"
	"github.com/cycle3/supplysync-backend/pkg/config"
	"github.com/cycle3/supplysync-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	SupplierService      suppliers.Service
	LinkService          links.Service
	PurchaseOrderService purchaseorders.Service
	QuoteService         quotes.Service
	ProductResolver      quotes.ProductResolver
	FulfillmentService   webhookcontrollers.OrderPlannerService
	HealthDeps           map[string]controllers.Pinger
	MetricsRegistry      *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.ShopifyWebhook(cfg.Shopify, logg))
		r.Post("/orders/create", webhookcontrollers.OrderCreated(deps.FulfillmentService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.SupplierCreate(deps.SupplierService, logg))
			r.Get("/", controllers.SupplierList(deps.SupplierService, logg))
			r.Get("/{supplierID}", controllers.SupplierGet(deps.SupplierService, logg))
			r.Put("/{supplierID}", controllers.SupplierUpdate(deps.SupplierService, logg))
			r.Delete("/{supplierID}", controllers.SupplierDelete(deps.SupplierService, logg))
			r.Get("/{supplierID}/quotes", controllers.QuoteListBySupplier(deps.QuoteService, logg))
		})

		r.Route("/products/{productID}/suppliers", func(r chi.Router) {
			r.Get("/", controllers.LinkList(deps.LinkService, logg))
			r.Put("/{supplierID}", controllers.LinkUpsert(deps.LinkService, logg))
		})
		r.Delete("/links/{linkID}", controllers.LinkDelete(deps.LinkService, logg))

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.PurchaseOrderList(deps.PurchaseOrderService, logg))
			r.Get("/{poNumber}", controllers.PurchaseOrderGet(deps.PurchaseOrderService, logg))
			r.Post("/{poNumber}/approve", controllers.PurchaseOrderApprove(deps.PurchaseOrderService, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", controllers.QuoteIngest(deps.QuoteService, logg))
			r.Get("/{quoteID}", controllers.QuoteGet(deps.QuoteService, logg))
			r.Post("/{quoteID}/promote", controllers.QuotePromote(deps.QuoteService, deps.ProductResolver, logg))
		})
	})

	return r
}
