package router

import (
	"net/http"

	"github.com/dishly/api/internal/config"
	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/dishly/api/internal/handler"
	mw "github.com/dishly/api/internal/middleware"
	"github.com/dishly/api/internal/service"
	"github.com/dishly/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, log *logrus.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Public menu browse
	menuHandler := handler.NewMenuHandler(queries)
	r.Get("/menu", menuHandler.Browse)

	// WebSocket kitchen feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services share the pool-backed store; transactional flows build
	// tx-scoped stores through the factories.
	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	inventoryService := service.NewInventoryService(pool, queries, func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(orderService, hub)
		r.Route("/orders", orderHandler.RegisterRoutes)

		inventoryHandler := handler.NewInventoryHandler(inventoryService)
		r.Get("/dishes/{id}/stock", inventoryHandler.GetStock)
		r.Get("/dishes/{id}/availability", inventoryHandler.CheckAvailability)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			menuHandler.RegisterAdminRoutes(r)
			r.Post("/dishes/{id}/stock/adjust", inventoryHandler.Adjust)
			r.Post("/stock/adjust-batch", inventoryHandler.AdjustBatch)
		})
	})

	return r
}
