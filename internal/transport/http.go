package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/handler"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

// NewRouter wires repositories, services and handlers onto one chi router.
// The returned watch hub must be Run to receive cross-instance cart changes.
func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) (*chi.Mux, *cart.Watch) {
	catalogRepo := catalog.NewRepository(pool)

	cartRepo := cart.NewRepository(pool)
	watch := cart.NewWatch(cartRepo.ListByUser, rdb)
	cartSvc := cart.NewService(cartRepo, watch)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo)
	fees := order.Fees{Shipping: cfg.Store.ShippingFee, Tax: cfg.Store.TaxFee}
	placer := order.NewPlacer(orderRepo, cartSvc, catalogRepo, fees)

	catalogHandler := handler.NewCatalogHandler(catalogRepo)
	cartHandler := handler.NewCartHandler(cartSvc)
	orderHandler := handler.NewOrderHandler(placer, orderSvc)

	r := chi.NewRouter()
	r.Use(identity.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/products/{id}", catalogHandler.GetProduct)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Get("/stream", cartHandler.StreamCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productID}", cartHandler.UpdateItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.PlaceOrder)
		r.Get("/", orderHandler.GetOrders)
		r.Get("/{id}", orderHandler.GetOrderByID)
		r.Patch("/{id}/status", orderHandler.UpdateStatus)
	})

	return r, watch
}
