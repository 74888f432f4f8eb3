package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardapio-pos/api/internal/broker"
	"github.com/cardapio-pos/api/internal/cart"
	"github.com/cardapio-pos/api/internal/config"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/handler"
	"github.com/cardapio-pos/api/internal/realtime"
	"github.com/cardapio-pos/api/internal/receipt"
	"github.com/cardapio-pos/api/internal/router"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const cartSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)
	hub := ws.NewHub()
	carts := cart.NewStore(cfg.CartTTL, cfg.MaxCarts)

	// Board reloads only read, so the loader needs no tx or collaborators.
	loader := service.NewBoardService(queries, pool, nil, nil, nil)
	reconciler := realtime.NewReconciler(loader, hub, handler.RenderBoard)

	if cfg.AMQPURL != "" {
		publisher, err := broker.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("Unable to connect to broker: %v", err)
		}
		defer publisher.Close()
		reconciler.WithPublisher(publisher)
		log.Println("Publishing order changes to broker")
	}

	listener := realtime.NewListener(pool, reconciler.HandleChange)

	r := router.New(cfg, queries, pool, hub, router.Deps{
		Carts:    carts,
		Notifier: reconciler,
		Printer:  receipt.NewLogPrinter(log.New(os.Stdout, "receipt: ", log.LstdFlags)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx) })
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return carts.RunSweeper(gctx, cartSweepInterval) })
	g.Go(func() error {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}
