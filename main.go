package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bom-tracker/internal/analytics"
	analytics_api "bom-tracker/internal/analytics/api"
	"bom-tracker/internal/auth"
	"bom-tracker/internal/config"
	"bom-tracker/internal/database"
	"bom-tracker/internal/database/migrations"
	"bom-tracker/internal/kafka"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/order"
	orderdb "bom-tracker/internal/order/db"
	orderkafka "bom-tracker/internal/order/kafka"
	"bom-tracker/internal/order/order_api"
	orderredis "bom-tracker/internal/order/redis"
	"bom-tracker/internal/sse"
	"bom-tracker/internal/user"
	userdb "bom-tracker/internal/user/db"
	"bom-tracker/internal/user/user_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back all postgres migrations and exit")
	flag.Parse()

	envErr := godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(logger.Options{
		Dir:      cfg.Log.Dir,
		Service:  "bom-tracker",
		MinLevel: logger.ParseLevel(cfg.Log.Level),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting BOM tracker initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}
	if os.Getenv("SESSION_KEY") == "" {
		log.Warn("CONFIG", "SESSION_KEY not set, sessions will not survive a restart")
	}

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	if *migrateDown {
		rollback(cfg.Database, bunDB, log)
		return
	}
	migrateSchema(ctx, cfg.Database, bunDB, log)

	var lock order.RedisLock
	if cfg.Redis.Enabled {
		redisClient, err := orderredis.Connect(ctx, cfg.Redis.Addr, log)
		if err != nil {
			log.Fatal("REDIS", err.Error())
		}
		defer closeRedis(redisClient, log)
		lock = orderredis.NewRedis(redisClient, cfg.Redis.LockTTL, log)
	} else {
		log.Info("REDIS", "Redis disabled, order writes rely on compare-and-swap only")
	}

	var publisher order.KafkaPublisher = orderkafka.NopProducer{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, orderkafka.Topics(cfg.Kafka.TopicPrefix), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		publisher = orderkafka.NewProducer(producer, cfg.Kafka.TopicPrefix, log)
		log.Info("KAFKA", fmt.Sprintf("Publishing order events to %v", cfg.Kafka.Brokers))
	}

	events := sse.NewOrderEventEmitter()
	sessions := auth.NewSessions(cfg.Session)

	userService := user.NewUserService(&userdb.DB{Bun: bunDB}, auth.NewPasswordHasher(cfg.Session.BcryptCost), log)
	orderService := order.NewOrderService(&orderdb.DB{Bun: bunDB}, lock, publisher, events, log)

	userHandler := &user_api.Handler{UserService: userService, Sessions: sessions, Logger: log}
	orderHandler := order_api.NewHandler(orderService, events, cfg.Server.PublicBaseURL, log)
	analyticsHandler := analytics_api.NewHandler(analytics.NewService(analytics.NewDB(bunDB)), log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware)
	r.Use(middleware.Recoverer)
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		userHandler.Routes(r)
		log.Info("ROUTER", "User routes registered under /api")

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireSession(log))
			orderHandler.Routes(r)
			analyticsHandler.RegisterRoutes(r)
		})
		log.Info("ROUTER", "Order routes registered under /api/orders")
		log.Info("ROUTER", "Analytics routes registered under /api/analytics")
	})

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		log.Info("ROUTER", fmt.Sprintf("Serving static files from %s", cfg.Server.StaticDir))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 BOM tracker running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ BOM tracker shutdown complete")
	}
}

// migrateSchema creates the sqlite schema in place, or runs the embedded
// migrations against postgres.
func migrateSchema(ctx context.Context, cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) {
	if cfg.Driver == "sqlite" {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("create schema: %v", err))
		}
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{AutoMigrate: cfg.AutoMigrate}, log)
	defer runner.Close()
	if err := runner.Initialize(); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
}

func rollback(cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) {
	if cfg.Driver != "postgres" {
		log.Fatal("MIGRATION", "-migrate-down only applies to postgres")
	}
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	defer runner.Close()
	if err := runner.MigrateDown(); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
	log.Info("MIGRATION", "All migrations rolled back")
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("close: %v", err))
	}
}
