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

	"storefront-api/internal/auth"
	"storefront-api/internal/cart"
	"storefront-api/internal/catalog"
	"storefront-api/internal/config"
	"storefront-api/internal/database"
	"storefront-api/internal/gateway"
	"storefront-api/internal/logger"
	"storefront-api/internal/messaging"
	"storefront-api/internal/services/notification"
	"storefront-api/internal/services/order"
)

func main() {
	var (
		mode           = flag.String("mode", "", "Service mode: api-server or notification-subscriber")
		port           = flag.Int("port", 3000, "HTTP port for api-server mode")
		configPath     = flag.String("config", "config.yaml", "Path to configuration file")
		migrationsPath = flag.String("migrations", "migrations", "Path to migration files")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintln(os.Stderr, "mode is required: api-server or notification-subscriber")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "api-server":
		err = runAPIServer(ctx, cfg, *port, *migrationsPath)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s\n", *mode)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "service failed: %v\n", err)
		os.Exit(1)
	}
}

func runAPIServer(ctx context.Context, cfg *config.Config, port int, migrationsPath string) error {
	log := logger.New("api-server")

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	mqConn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	publisher := messaging.NewPublisher(mqConn, log)
	defer publisher.Close()

	carts, err := cart.NewRedisStore(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer carts.Close()

	repo := order.NewRepository(db)
	cat := catalog.New(db)
	gtw := gateway.NewRazorpay(&cfg.Gateway, log)
	authManager := auth.NewManager(cfg.Auth.JWTSecret)

	service := order.NewService(repo, cat, gtw, carts, publisher, log,
		cfg.Gateway.KeyID, cfg.Gateway.KeySecret)
	handler := order.NewHandler(service, authManager, log)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", fmt.Sprintf("API server listening on port %d", port), "startup", map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_stopping", "Shutting down API server", "shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info("server_stopped", "API server stopped", "shutdown", nil)
	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config) error {
	log := logger.New("notification-subscriber")

	mqConn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	subscriber := notification.NewSubscriber(mqConn, cfg.SMTP, log)
	defer subscriber.Close()

	log.Info("subscriber_started", "Notification subscriber running", "startup", nil)

	return subscriber.Run(ctx)
}
