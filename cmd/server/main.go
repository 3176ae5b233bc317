package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/handler"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/server"
	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/migrations"
	"github.com/MKhiriev/go-facility-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// startupTimeout bounds connecting to PostgreSQL and Redis.
const startupTimeout = 10 * time.Second

func main() {
	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	printBuildInfo(build)

	log := logger.NewLogger("facility-sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().
		Str("http_address", cfg.Server.HTTPAddress).
		Str("policy_file", cfg.PolicyFilePath).
		Dur("request_timeout", cfg.Server.RequestTimeout).
		Msg("received configs")

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err = migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	redisClient, err := store.NewRedisClient(ctx, cfg.Storage.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to redis")
	}
	defer redisClient.Close()

	storages := store.NewStorages(db, redisClient, cfg.Sync)

	services, err := service.NewServices(storages, cfg, build, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo(build models.AppBuildInfo) {
	fmt.Printf("Build version: %s\n", build.BuildVersion)
	fmt.Printf("Build date: %s\n", build.BuildDate)
	fmt.Printf("Build commit: %s\n", build.BuildCommit)
}
