package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/figcore/internal/auth"
	"github.com/inamate/figcore/internal/collab"
	"github.com/inamate/figcore/internal/config"
	"github.com/inamate/figcore/internal/document"
	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/figures"
	"github.com/inamate/figcore/internal/metrics"
	mw "github.com/inamate/figcore/internal/middleware"
	"github.com/inamate/figcore/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	defaults, err := cfg.Preferences.Defaults()
	if err != nil {
		slog.Error("load preferences", "error", err)
		os.Exit(1)
	}
	figure.SetLogger(slog.Default().With("component", "figure"))

	fonts, err := metrics.New()
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}
	defer fonts.Close()
	docOpts := document.Options{
		HistoryDepth: cfg.HistoryDepth,
		Measurer:     fonts,
		ResizeFloor:  cfg.Preferences.ResizeFloor,
		FocusMargin:  cfg.Preferences.FocusMargin,
		Logger:       slog.Default().With("component", "document"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	figureService := figures.NewService(st, defaults, docOpts)
	figureHandler := figures.NewHandler(figureService)

	hub := collab.NewHub(st.LoadDocument, st.SaveDocument, collab.HubOptions{
		Defaults:     defaults,
		Document:     docOpts,
		SaveInterval: time.Duration(cfg.SaveInterval) * time.Second,
	})
	go hub.Run(ctx)

	origins := strings.Split(cfg.AllowedOrigins, ",")

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/figures", figureHandler.List).Methods("GET")
	api.HandleFunc("/figures", figureHandler.Create).Methods("POST")
	api.HandleFunc("/figures/{figureId}", figureHandler.Get).Methods("GET")
	api.HandleFunc("/figures/{figureId}", figureHandler.Delete).Methods("DELETE")
	api.HandleFunc("/figures/{figureId}/snapshots/latest", figureHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/figures/{figureId}/render", figureHandler.Render).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/figure/{figureId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, figureService, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty figures
		slog.Info("saving all figures...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, figureSvc *figures.Service, origins []string) {
	figureID := mux.Vars(r)["figureId"]

	// Auth via query param; browsers cannot set headers on upgrades
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := figureSvc.CanEdit(r.Context(), figureID, userID); err != nil {
		switch {
		case errors.Is(err, figures.ErrNotFound):
			http.Error(w, "figure not found", http.StatusNotFound)
		case errors.Is(err, figures.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("check figure access", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, user.DisplayName, figureID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
