package router

import (
	"log"
	"net/http"
	"time"

	"github.com/cardapio-pos/api/internal/cart"
	"github.com/cardapio-pos/api/internal/config"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/enum"
	"github.com/cardapio-pos/api/internal/handler"
	mw "github.com/cardapio-pos/api/internal/middleware"
	"github.com/cardapio-pos/api/internal/realtime"
	"github.com/cardapio-pos/api/internal/receipt"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps are the long-lived components shared between the router and the
// background loops.
type Deps struct {
	Carts *cart.Store
	// Notifier is triggered after every order mutation. May be nil.
	Notifier service.Notifier
	// Printer receives the receipt of every closed order. May be nil.
	Printer receipt.Printer
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	loc, err := cfg.Location()
	if err != nil {
		log.Printf("WARN: timezone %q: %v, using UTC", cfg.Timezone, err)
		loc = time.UTC
	}

	carts := deps.Carts
	if carts == nil {
		carts = cart.NewStore(cfg.CartTTL, cfg.MaxCarts)
	}

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, deps.Notifier)
	boardService := service.NewBoardService(queries, pool, func(db database.DBTX) service.CloseStore {
		return database.New(db)
	}, deps.Printer, deps.Notifier)

	// Handlers
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	menuHandler := handler.NewMenuHandler(queries)
	settingsHandler := handler.NewSettingsHandler(queries)
	cartHandler := handler.NewCartHandler(carts, queries, orderService)
	orderHandler := handler.NewOrderHandler(orderService, boardService, queries)
	tableHandler := handler.NewTableHandler(queries)
	categoryHandler := handler.NewCategoryHandler(queries)
	menuItemHandler := handler.NewMenuItemHandler(queries)
	reportsHandler := handler.NewReportsHandler(queries, loc)
	cashHandler := handler.NewCashHandler(queries, loc)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler.RegisterRoutes(r)
	menuHandler.RegisterRoutes(r)
	r.Route("/contact", settingsHandler.RegisterContactRoutes)
	r.Route("/carts", cartHandler.RegisterRoutes)

	r.Route("/settings", func(r chi.Router) {
		settingsHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Use(mw.RequireRole(enum.UserRoleOwner))
			settingsHandler.RegisterOwnerRoutes(r)
		})
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Any staff member
		authHandler.RegisterStaffRoutes(r)
		r.Method("GET", "/ws/orders", ws.NewHandler(hub, realtime.Topic, cfg.CORSOrigins))
		r.Route("/orders", orderHandler.RegisterRoutes)
		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				tableHandler.RegisterManagerRoutes(r)
			})
		})

		// Back office
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
			r.Route("/categories", categoryHandler.RegisterRoutes)
			r.Route("/menu-items", menuItemHandler.RegisterRoutes)
			r.Route("/reports", reportsHandler.RegisterRoutes)
			r.Route("/cash-movements", cashHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
