package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/pinboard/backend/internal/auth"
	"github.com/ayush/pinboard/backend/internal/config"
	"github.com/ayush/pinboard/backend/internal/graph"
	"github.com/ayush/pinboard/backend/internal/images"
	"github.com/ayush/pinboard/backend/internal/logging"
	"github.com/ayush/pinboard/backend/internal/middleware"
	"github.com/ayush/pinboard/backend/internal/pinboard"
	"github.com/ayush/pinboard/backend/internal/store"
)

// documentStore is satisfied by both the Mongo and the in-memory store.
type documentStore interface {
	pinboard.UserStore
	pinboard.PinStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Env)
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid config", err)
	}
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	var docs documentStore
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			fatal(logger, "mongo connect", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal(logger, "mongo indexes", err)
		}
		docs = mongoStore
	} else {
		logger.Warn("MONGO_URI not set, using in-memory store")
		docs = store.NewMemoryStore()
	}

	// ── PostgreSQL ────────────────────────────────────────────
	var activity pinboard.Recorder
	if cfg.PostgresDSN != "" {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(logger, "postgres connect", err)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			fatal(logger, "postgres migrate", err)
		}
		activity = pgStore
	} else {
		logger.Info("POSTGRES_DSN not set, activity log disabled")
	}

	// ── Auth ─────────────────────────────────────────────────
	gateOpts := []auth.Option{}
	if activity != nil {
		gateOpts = append(gateOpts, auth.WithActivity(activity))
	}

	// ── Redis ────────────────────────────────────────────────
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			fatal(logger, "redis connect", err)
		}
		defer rdb.Close()
		gateOpts = append(gateOpts, auth.WithThrottle(auth.NewLoginLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow)))
	} else {
		logger.Info("REDIS_ADDR not set, login throttling disabled")
	}

	gate := auth.NewGate(docs,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		logger, gateOpts...)
	svc := pinboard.NewService(docs, docs, activity, logger)

	schema, err := graph.NewSchema(svc, gate, logger)
	if err != nil {
		fatal(logger, "graphql schema", err)
	}

	// ── MinIO ────────────────────────────────────────────────
	var imageHandler *images.Handler
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			fatal(logger, "minio connect", err)
		}
		imageHandler = images.NewHandler(minioStore, cfg.MaxImageBytes, cfg.PublicURL+"/api/images", logger,
			images.WithUploadGuard(middleware.RequireViewer))
	} else {
		logger.Info("MINIO_ENDPOINT not set, image uploads disabled")
	}

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.With(middleware.Viewer(gate, logger)).Handle("/graphql", graph.NewHandler(&schema, cfg.IsDevelopment()))

	if imageHandler != nil {
		r.Route("/api/images", func(r chi.Router) {
			r.Use(middleware.Viewer(gate, logger))
			imageHandler.Routes(r)
		})
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	go func() {
		logger.Info("pinboard listening", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
