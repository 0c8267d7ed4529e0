package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/app"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore/firebase"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore/memory"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/sdk/userstore/postgres"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/photos"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/services/sentry"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/tokens"
	"github.com/ArquiSoft-Grupo-2B/authentication-service/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger.Info("GOMAXPROCS", "cpu", runtime.GOMAXPROCS(0))

	// 1. Initialize the identity store
	store, tokenStore, health, cleanup, err := buildStore(logger)
	if err != nil {
		return fmt.Errorf("initializing identity store: %w", err)
	}
	defer cleanup()

	// 2. Initialize Services
	sentryService := sentry.New()
	defer sentryService.Close()

	var photoService *photos.Service
	if os.Getenv("MINIO_ENDPOINT") != "" {
		photoService, err = photos.New()
		if err != nil {
			logger.Error("photo storage unavailable", "error", err)
			photoService = nil
		} else if err := photoService.EnsureBucket(context.Background()); err != nil {
			logger.Error("photo bucket unavailable", "error", err)
			photoService = nil
		}
	}

	// 3. Initialize App
	users := usecase.NewUsers(store)
	tokenUsecase := usecase.NewTokens(tokenStore)
	application := app.NewApp(logger, users, tokenUsecase, sentryService, photoService, health)

	// 4. Configure Server
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      application.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 5. Graceful Shutdown Logic
	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		done <- true
	}()

	// 6. Start Server
	logger.Info("Starting server", "port", port, "store", storeDriver())
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info("Graceful shutdown complete")
	return nil
}

func storeDriver() string {
	driver := os.Getenv("IDENTITY_STORE")
	if driver == "" {
		driver = "memory"
	}
	return driver
}

// buildStore selects the user-store backend from IDENTITY_STORE: "memory"
// (default), "postgres", or "firebase". The returned health func may be nil
// when the backend has no connectivity check.
func buildStore(logger *slog.Logger) (userstore.Store, userstore.TokenStore, func(context.Context) map[string]string, func(), error) {
	switch storeDriver() {
	case "memory":
		st := memory.New()
		return st, st, nil, func() {}, nil

	case "postgres":
		signer := tokens.NewService()
		st, err := postgres.New(signer)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cleanup := func() {
			if err := st.Close(); err != nil {
				logger.Error("closing database", "error", err)
			}
		}
		return st, signer, st.Health, cleanup, nil

	case "firebase":
		st, err := firebase.New(context.Background())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return st, st, nil, func() {}, nil
	}

	return nil, nil, nil, nil, fmt.Errorf("unknown IDENTITY_STORE %q", os.Getenv("IDENTITY_STORE"))
}
