package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calvinwijaya/uno-game-be/internal/api"
	"github.com/calvinwijaya/uno-game-be/internal/config"
	"github.com/calvinwijaya/uno-game-be/internal/db"
	"github.com/calvinwijaya/uno-game-be/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		envFile     = flag.String("env", ".env", "Path to .env file")
		port        = flag.String("port", "", "Server port")
		dbDriver    = flag.String("db-driver", "", "Database driver: sqlite3, postgres or none")
		dbDSN       = flag.String("db", "", "Database path or connection string")
		frontendURL = flag.String("frontend", "", "Frontend URL for CORS")
		logLevel    = flag.String("log-level", "", "Log level")
		rulesFile   = flag.String("rules", "", "YAML rules file")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override the environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "db-driver":
			cfg.DBDriver = *dbDriver
		case "db":
			cfg.DBDSN = *dbDSN
		case "frontend":
			cfg.FrontendURL = *frontendURL
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if *rulesFile != "" {
		if err := cfg.LoadRules(*rulesFile); err != nil {
			logrus.Fatalf("Invalid rules: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log := cfg.NewLogger()

	gameStore := store.NewMemoryStore()
	log.Info("In-memory game store initialized")

	database := openDatabase(cfg, log)
	if database != nil {
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := api.NewHub(log.WithField("component", "websocket"))
	handlers := api.NewHandlers(gameStore, database, hub, cfg, log.WithField("component", "api"))

	r := mux.NewRouter()
	handlers.RegisterRoutes(r)
	r.Use(requestLogger(log))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("WebSocket hub started")
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	log.Info("Server stopped")
}

// openDatabase connects the results database. The server keeps running
// without persistence when it is disabled or unreachable.
func openDatabase(cfg config.Config, log *logrus.Logger) *db.Database {
	if cfg.DBDriver == "none" {
		log.Info("Database disabled")
		return nil
	}

	if cfg.DBDriver == "sqlite3" && cfg.DBDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize database, continuing without persistence")
		return nil
	}
	log.WithField("driver", cfg.DBDriver).Info("Database initialized successfully")
	return database
}

func requestLogger(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.RequestURI,
				"duration": time.Since(start),
			}).Info("request")
		})
	}
}
