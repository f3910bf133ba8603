package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"neurosense/adapters/featurecache"
	"neurosense/adapters/modelstore"
	"neurosense/adapters/postgres"
	"neurosense/api"
	"neurosense/app"
	"neurosense/domain/recommend"
	"neurosense/internal"
	"neurosense/internal/config"
	"neurosense/internal/errors"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	bundles := modelstore.NewCache(modelstore.NewFileStore())
	resolver := modelstore.NewResolver(cfg.Paths.ModelsDir, bundles)
	features := featurecache.NewFileCache(cfg.Paths.FeatureCacheDir)

	prediction := app.NewPredictionService(resolver, features, store, logger)
	stability := app.NewStabilityService(store, prediction, logger)
	recommendation := app.NewRecommendationService(store, stability, recommend.NewEngine(), logger)

	server := api.NewServer(prediction, stability, recommendation, store, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}
