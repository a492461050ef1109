package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/campuskart/campus_market/internal/config"
	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/handlers"
	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	loggingmw "github.com/campuskart/campus_market/internal/middleware/logging"
	"github.com/campuskart/campus_market/internal/repo"
	"github.com/campuskart/campus_market/internal/revocation"
	"github.com/campuskart/campus_market/internal/search"
	"github.com/campuskart/campus_market/internal/service"
	"github.com/campuskart/campus_market/internal/token"
	httpserver "github.com/campuskart/campus_market/internal/transport/http"
	"github.com/campuskart/campus_market/pkg/db"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DATABASE_URL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	if configuration.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	// The in-memory store is fine for a single replica; point REDIS_ADDR at
	// a shared instance when running more than one.
	var store revocation.Store = revocation.NewMemoryStore()
	if configuration.REDIS_ADDR != "" {
		store = revocation.NewRedisStore(configuration.REDIS_ADDR)
		logger.Info("revocation store", "backend", "redis", "addr", configuration.REDIS_ADDR)
	} else {
		logger.Warn("revocation store is in-memory: revocations do not survive restarts and are not shared across instances")
	}

	tokens := token.NewService([]byte(configuration.JWT_SECRET), configuration.TOKEN_TTL, store)

	var producer events.Publisher = events.NopPublisher{}
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewKafkaPublisher(configuration.KAFKA_ADDRESS)
	}

	var indexer *search.Indexer
	if configuration.ES_URL != "" {
		esClient, err := search.NewClient(search.Config{
			URL:      configuration.ES_URL,
			Username: configuration.ES_USER,
			Password: configuration.ES_PASSWORD,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = search.NewIndexer(esClient, "products")
	}

	repository := repo.New(database)
	authSvc := &service.AuthService{Repo: repository, Tokens: tokens}
	catalogSvc := &service.CatalogService{Repo: repository}
	cartSvc := &service.CartService{Repo: repository}
	purchase := &service.PurchaseCoordinator{Repo: repository}
	guard := &auth.Guard{Tokens: tokens}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// RequestLogger owns X-Request-ID generation
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Guard:          guard,
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc, Producer: producer},
		ProfileHandler: &handlers.ProfileHandler{Svc: authSvc},
		ProductHandler: &handlers.ProductHandler{Svc: catalogSvc, Producer: producer, Indexer: indexer},
		CartHandler:    &handlers.CartHandler{Cart: cartSvc, Purchase: purchase, Producer: producer, Indexer: indexer},
		SearchHandler:  &handlers.SearchHandler{Indexer: indexer},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("producer close error: %v", err)
	}

	log.Println("shutdown complete")
}
