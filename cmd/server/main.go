package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/ziyun99/treasurehunt/internal/auth"
	"github.com/ziyun99/treasurehunt/internal/config"
	"github.com/ziyun99/treasurehunt/internal/httpapi"
	"github.com/ziyun99/treasurehunt/internal/hunt"
	"github.com/ziyun99/treasurehunt/internal/logging"
	servehttp "github.com/ziyun99/treasurehunt/internal/server"
	"github.com/ziyun99/treasurehunt/internal/user"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.New("treasurehunt")

	var huntRepo hunt.Repository
	var userRepo user.Repository
	switch cfg.DataStore {
	case "firestore":
		if cfg.Firestore.EmulatorHost != "" {
			logger.Info("using firestore emulator", "host", cfg.Firestore.EmulatorHost)
		}
		client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		if err != nil {
			panic(fmt.Errorf("firestore client: %w", err))
		}
		defer client.Close()
		huntRepo = hunt.NewFirestoreRepository(client)
		userRepo = user.NewFirestoreRepository(client)
	case "memory":
		logger.Warn("using in-memory datastore, state will not survive restarts")
		huntRepo = hunt.NewMemoryRepository()
		userRepo = user.NewMemoryRepository()
	default:
		panic(fmt.Errorf("unsupported datastore: %s", cfg.DataStore))
	}

	huntService, err := hunt.NewService(huntRepo, hunt.NewSystemClock(), hunt.NewUUIDGenerator(), cfg.Hunt.StartDate, cfg.Hunt.Location)
	if err != nil {
		panic(fmt.Errorf("hunt service: %w", err))
	}
	userService := user.NewService(userRepo)

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := servehttp.NewRouter("treasurehunt", version, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))

			httpapi.RegisterRoutes(r, huntService, userService, cfg.AdminUIDs, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"datastore", cfg.DataStore,
		"auth_mode", string(cfg.Auth.Mode),
		"hunt_start", cfg.Hunt.StartDate.Format("2006-01-02"),
	)
	if err := servehttp.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
