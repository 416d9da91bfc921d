package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nvrbrth/nvrbrth-backend1/internal/catalog"
	"github.com/nvrbrth/nvrbrth-backend1/internal/checkout"
	h "github.com/nvrbrth/nvrbrth-backend1/internal/http"
	"github.com/nvrbrth/nvrbrth-backend1/internal/ledger"
	"github.com/nvrbrth/nvrbrth-backend1/internal/mail"
	"github.com/nvrbrth/nvrbrth-backend1/internal/payment"
	"github.com/nvrbrth/nvrbrth-backend1/internal/reconcile"
)

type Config struct {
	HTTPPort            string
	DBPath              string
	MigrationsPath      string
	RedisAddr           string
	KafkaBrokers        []string
	AllowedOrigins      []string
	StripeKey           string
	StripeWebhookSecret string
	SendGridKey         string
	FromName            string
	FromEmail           string
	SuccessURL          string
	CancelURL           string
	ShippingCountries   []string
	AllowPromoCodes     bool
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "nvrbrth.db"),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "https://nvrbrth.com")),
		StripeKey:           os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SendGridKey:         os.Getenv("SENDGRID_API_KEY"),
		FromName:            getEnv("MAIL_FROM_NAME", "NVRBRTH"),
		FromEmail:           getEnv("MAIL_FROM_EMAIL", "orders@nvrbrth.com"),
		SuccessURL:          getEnv("CHECKOUT_SUCCESS_URL", "https://nvrbrth.com/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           getEnv("CHECKOUT_CANCEL_URL", "https://nvrbrth.com/cart"),
		ShippingCountries:   splitList(getEnv("SHIPPING_COUNTRIES", "GB")),
		AllowPromoCodes:     getEnv("ALLOW_PROMO_CODES", "true") == "true",
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()

	// Missing secrets degrade the affected paths per-request instead of
	// killing the process, so the health probe stays reachable.
	if cfg.StripeKey == "" {
		log.Printf("WARNING: STRIPE_SECRET_KEY is not set, session creation will fail")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Printf("WARNING: STRIPE_WEBHOOK_SECRET is not set, webhooks will be rejected")
	}
	if cfg.SendGridKey == "" {
		log.Printf("WARNING: SENDGRID_API_KEY is not set, confirmation emails will fail")
	}

	catalogRepo, err := catalog.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open catalog store: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var store catalog.Store = catalogRepo
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		store = catalog.NewCachedStore(catalogRepo, catalog.NewRedisCache(redisClient))
	}

	orderLedger, err := ledger.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open order ledger: %v", err)
	}
	defer orderLedger.Close()

	var deadletter reconcile.DeadLetter = reconcile.LogDeadLetter{}
	if len(cfg.KafkaBrokers) > 0 {
		kdl := reconcile.NewKafkaDeadLetter(cfg.KafkaBrokers...)
		defer kdl.Close()
		deadletter = kdl
	}

	processor := payment.NewStripeClient(cfg.StripeKey, cfg.StripeWebhookSecret)
	sender := mail.NewSendGridClient(cfg.SendGridKey, cfg.FromName, cfg.FromEmail)
	resolver := catalog.NewResolver(store, catalog.DefaultAliases)

	checkoutService := checkout.NewService(resolver, processor, checkout.Policy{
		SuccessURL:          cfg.SuccessURL,
		CancelURL:           cfg.CancelURL,
		ShippingCountries:   cfg.ShippingCountries,
		AllowPromotionCodes: cfg.AllowPromoCodes,
	})
	reconciler := reconcile.NewReconciler(processor, store, orderLedger, sender, deadletter)

	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(orderLedger, cfg.RequestTimeout)
	webhookHandler := h.NewWebhookHandler(processor, reconciler, "Stripe-Signature")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	})

	r.Post("/webhook", webhookHandler.Receive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.CreateSession)
		r.Get("/orders/{sessionID}", ordersHandler.GetOrder)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "nvrbrth-backend"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("checkout broker starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}
