package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-pos/internal/config"
	"ms-pos/internal/confirm"
	"ms-pos/internal/database"
	"ms-pos/internal/inventory"
	invdb "ms-pos/internal/inventory/db"
	"ms-pos/internal/kafka"
	"ms-pos/internal/kitchen"
	kitchenapi "ms-pos/internal/kitchen/api"
	kitchendb "ms-pos/internal/kitchen/db"
	"ms-pos/internal/logger"
	"ms-pos/internal/order"
	orderapi "ms-pos/internal/order/api"
	orderdb "ms-pos/internal/order/db"
	"ms-pos/internal/session"
	sessionapi "ms-pos/internal/session/api"
	sessiondb "ms-pos/internal/session/db"
	rediswrap "ms-pos/internal/session/redis"
	"ms-pos/internal/void"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg := config.Load()
	appLogger := logger.NewLogger()
	defer appLogger.Close()

	// --- PostgreSQL Setup ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("❌ Failed to connect to Postgres: %v", err)
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	if err := database.Migrate(ctx, bunDB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	log.Println("🔗 Connecting to Redis...")
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	// --- Kafka Setup ---
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics()); err != nil {
			log.Printf("⚠️ Kafka topic bootstrap failed: %v", err)
		}
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	// --- Initialize Dependencies ---
	log.Println("📦 Initializing POS core...")
	inventoryDB := &invdb.DB{Bun: bunDB}
	orderDB := &orderdb.DB{Bun: bunDB}
	kitchenDB := &kitchendb.DB{Bun: bunDB}
	sessionDB := &sessiondb.DB{Bun: bunDB}
	tableLock := rediswrap.NewRedis(redisClient)

	ledger := inventory.NewLedger(inventoryDB, appLogger)
	router := kitchen.NewRouter(kitchenDB, inventoryDB, producer, appLogger)
	orderSvc := order.NewOrderService(orderDB, inventoryDB, ledger, router, appLogger)
	confirmCoord := confirm.NewCoordinator(orderDB, ledger, router, producer, appLogger)
	voidCoord := void.NewCoordinator(orderDB, ledger, router, producer, appLogger)
	sessionSvc := session.NewSessionService(sessionDB, orderDB, tableLock, producer, appLogger)

	orderHandler := orderapi.NewHandler(orderSvc, confirmCoord, voidCoord, appLogger)
	kitchenHandler := kitchenapi.NewHandler(router, appLogger)
	sessionHandler := sessionapi.NewHandler(sessionSvc, appLogger)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Post("/api/v1/orders", orderHandler.CreateOrder)
	r.Get("/api/v1/orders/{orderId}", orderHandler.GetOrder)
	r.Delete("/api/v1/orders/{orderId}", orderHandler.DeleteOrder)
	r.Post("/api/v1/orders/{orderId}/items", orderHandler.AddItem)
	r.Patch("/api/v1/orders/{orderId}/items/{itemId}", orderHandler.ChangeItemQuantity)
	r.Delete("/api/v1/orders/{orderId}/items/{itemId}", orderHandler.RemoveItem)
	r.Post("/api/v1/orders/{orderId}/confirm", orderHandler.ConfirmOrder)
	r.Post("/api/v1/orders/{orderId}/void", orderHandler.VoidOrder)
	r.Post("/api/v1/orders/{orderId}/complete", orderHandler.CompleteOrder)
	r.Get("/api/v1/orders/{orderId}/tickets", kitchenHandler.OrderTickets)

	r.Get("/api/v1/tickets", kitchenHandler.StationQueue)
	r.Post("/api/v1/tickets/{ticketId}/advance", kitchenHandler.AdvanceTicket)

	r.Post("/api/v1/sessions", sessionHandler.OpenSession)
	r.Post("/api/v1/sessions/{sessionId}/orders/{orderId}", sessionHandler.AttachOrder)
	r.Get("/api/v1/sessions/{sessionId}/total", sessionHandler.GetSessionTotal)
	r.Post("/api/v1/sessions/{sessionId}/close", sessionHandler.CloseSession)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 POS core running on %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("📦 Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
