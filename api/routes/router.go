package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevmwangi/shoplink-backend/api/controllers"
	"github.com/kevmwangi/shoplink-backend/api/middleware"
	"github.com/kevmwangi/shoplink-backend/internal/address"
	"github.com/kevmwangi/shoplink-backend/internal/cart"
	"github.com/kevmwangi/shoplink-backend/internal/fulfillment"
	"github.com/kevmwangi/shoplink-backend/internal/listings"
	"github.com/kevmwangi/shoplink-backend/internal/notifications"
	"github.com/kevmwangi/shoplink-backend/internal/orders"
	"github.com/kevmwangi/shoplink-backend/internal/products"
	"github.com/kevmwangi/shoplink-backend/internal/settlement"
	"github.com/kevmwangi/shoplink-backend/pkg/config"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
	pkgredis "github.com/kevmwangi/shoplink-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *pkgredis.Client
	HealthChecks  map[string]controllers.Pinger
	Registry      *prometheus.Registry
	Addresses     *address.Service
	Cart          *cart.Service
	Settlement    *settlement.Service
	Fulfillment   *fulfillment.Service
	Orders        *orders.Service
	Products      *products.Service
	Listings      *listings.Service
	Notifications *notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	checkoutLimit := middleware.RateLimit(middleware.RateLimitPolicy{
		Scope:  "checkout",
		Limit:  30,
		Window: time.Minute,
	}, deps.Redis, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(deps.Redis, logg),
		)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCustomer))
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(deps.Cart, logg))
		})

		r.With(
			middleware.RequireRole(logg, enums.UserRoleCustomer),
			checkoutLimit,
		).Post("/checkout", controllers.Checkout(deps.Settlement, logg))

		r.With(
			middleware.RequireRole(logg, enums.UserRoleRetailer),
			checkoutLimit,
		).Post("/wholesale-orders", controllers.PlaceWholesaleOrder(deps.Settlement, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/received", controllers.ListSellerOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Fulfillment, logg))
		})

		r.Patch("/order-items/{itemID}/status", controllers.AdvanceOrderItemStatus(deps.Fulfillment, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
			r.With(middleware.RequireSeller(logg)).Post("/", controllers.CreateProduct(deps.Products, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Use(middleware.RequireSeller(logg))
			r.Post("/", controllers.CreateListing(deps.Listings, logg))
			r.Patch("/{listingID}/stock", controllers.AdjustListingStock(deps.Listings, logg))
			r.Patch("/{listingID}/price", controllers.UpdateListingPrice(deps.Listings, logg))
		})

		r.Get("/shops/{shopID}/listings", controllers.ListShopListings(deps.Listings, logg))
		r.Get("/warehouses/{warehouseID}/listings", controllers.ListWarehouseListings(deps.Listings, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
			r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(deps.Addresses, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.CountUnreadNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
