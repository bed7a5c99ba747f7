package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calderco/stockroom-backend/api/controllers"
	"github.com/calderco/stockroom-backend/api/middleware"
	"github.com/calderco/stockroom-backend/internal/locations"
	"github.com/calderco/stockroom-backend/internal/orders"
	"github.com/calderco/stockroom-backend/internal/shipments"
	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/internal/transfers"
	"github.com/calderco/stockroom-backend/pkg/config"
	"github.com/calderco/stockroom-backend/pkg/db"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/redis"
)

// NewRouter wires every HTTP surface of the engine: health probes, the
// Prometheus endpoint, and the /v1 API. Idempotency runs at the root so
// stock-moving replays are caught before any handler executes.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	locationService locations.Service,
	stockService stock.Service,
	transferService transfers.Service,
	orderService orders.Service,
	shipmentService shipments.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Idempotency(redisClient, logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisClient))
	})

	r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/v1/stock-locations", func(r chi.Router) {
		r.Post("/", controllers.LocationCreate(locationService, logg))
		r.Get("/", controllers.LocationList(locationService, logg))

		r.Route("/{locationID}", func(r chi.Router) {
			r.Get("/", controllers.LocationGet(locationService, logg))
			r.Patch("/", controllers.LocationUpdate(locationService, logg))
			r.Delete("/", controllers.LocationDelete(locationService, logg))
			r.Post("/restore", controllers.LocationRestore(locationService, logg))
			r.Post("/default", controllers.LocationMakeDefault(locationService, logg))
			r.Post("/restock", controllers.LocationRestock(locationService, logg))
			r.Post("/unstock", controllers.LocationUnstock(locationService, logg))
			r.Post("/store-links", controllers.LocationLinkStore(locationService, logg))
			r.Delete("/store-links/{storeID}", controllers.LocationUnlinkStore(locationService, logg))
			r.Get("/invariants", controllers.LocationInvariants(locationService, logg))
		})
	})

	r.Route("/v1/stock-items/{stockItemID}", func(r chi.Router) {
		r.Get("/movements", controllers.StockItemMovements(stockService, logg))
		r.Post("/reserve", controllers.StockItemReserve(stockService, logg))
		r.Post("/release", controllers.StockItemRelease(stockService, logg))
	})

	r.Route("/v1/stock-transfers", func(r chi.Router) {
		r.Post("/", controllers.TransferCreate(transferService, logg))
		r.Get("/", controllers.TransferList(transferService, logg))

		r.Route("/{transferID}", func(r chi.Router) {
			r.Get("/", controllers.TransferGet(transferService, logg))
			r.Post("/transfer", controllers.TransferExecute(transferService, logg))
			r.Post("/receive", controllers.TransferReceive(transferService, logg))
		})
	})

	r.Route("/v1/orders", func(r chi.Router) {
		r.Post("/", controllers.OrderCreate(orderService, logg))
		r.Get("/", controllers.OrderList(orderService, logg))

		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.OrderGet(orderService, logg))
			r.Post("/line-items", controllers.OrderAddLineItem(orderService, logg))
			r.Patch("/line-items/{lineItemID}", controllers.OrderUpdateLineItem(orderService, logg))
			r.Delete("/line-items/{lineItemID}", controllers.OrderRemoveLineItem(orderService, logg))
			r.Post("/addresses", controllers.OrderSetAddresses(orderService, logg))
			r.Post("/delivery", controllers.OrderSetDelivery(orderService, logg))
			r.Post("/adjustments", controllers.OrderAddAdjustment(orderService, logg))
			r.Post("/payments", controllers.OrderRecordPayment(orderService, logg))
			r.Post("/payments/{paymentID}/complete", controllers.OrderCompletePayment(orderService, logg))
			r.Post("/next", controllers.OrderNext(orderService, logg))
			r.Post("/complete", controllers.OrderComplete(orderService, logg))
			r.Post("/cancel", controllers.OrderCancel(orderService, logg))
			r.Get("/shipments", controllers.OrderShipments(shipmentService, logg))
		})
	})

	r.Route("/v1/shipments/{shipmentID}", func(r chi.Router) {
		r.Get("/", controllers.ShipmentGet(shipmentService, logg))
		r.Post("/ready", controllers.ShipmentReady(shipmentService, logg))
		r.Post("/ship", controllers.ShipmentShip(shipmentService, logg))
	})

	return r
}
