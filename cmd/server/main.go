package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/droughtwatch/droughtwatch-backend/internal/api/rest"
	"github.com/droughtwatch/droughtwatch-backend/internal/climate"
	"github.com/droughtwatch/droughtwatch-backend/internal/config"
	"github.com/droughtwatch/droughtwatch-backend/internal/economics"
	"github.com/droughtwatch/droughtwatch-backend/internal/ingest"
	"github.com/droughtwatch/droughtwatch-backend/internal/llm"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/param"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/logger"
	"github.com/droughtwatch/droughtwatch-backend/internal/repository"
	"github.com/droughtwatch/droughtwatch-backend/internal/service"
	"github.com/droughtwatch/droughtwatch-backend/migrations"
)

func main() {
	log := logger.StdLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var repo *repository.Repository
	if cfg.DemoMode {
		log.Info("demo mode enabled, using in-memory store")
		repo = repository.NewMemory()
	} else {
		repo, err = repository.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := repo.RunMigrations(migrations.FS); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		log.Info("database ready")
	}
	defer repo.Close()

	fetchTimeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	sources := []climate.Source{
		climate.ForName(models.SourceOpenMeteo, fetchTimeout, ""),
	}
	if cfg.NOAAAPIToken != "" {
		sources = append(sources, climate.ForName(models.SourceNOAA, fetchTimeout, cfg.NOAAAPIToken))
	}
	ingestor := ingest.NewOrchestrator(repo.Precipitation, sources, cfg.IngestionHistoryYears, log)

	var complete llm.CompletionFunc
	if !cfg.DemoMode && cfg.OpenAIAPIKey != "" {
		client := llm.NewClient(llm.Options{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.OpenAIMaxTokens,
			Temperature: cfg.OpenAITemperature,
			Timeout:     time.Duration(cfg.OpenAITimeoutSec) * time.Second,
			MaxRetries:  cfg.OpenAIMaxRetries,
			RetryDelay:  time.Duration(cfg.OpenAIRetryDelaySeconds) * time.Second,
		}, log)
		complete = client.Complete
		log.Info("AI parameterization enabled", "model", cfg.OpenAIModel)
	} else {
		log.Info("AI parameterization disabled, using deterministic fallback")
	}

	var provider economics.PriceProvider
	if cfg.EIAAPIKey != "" {
		provider = economics.NewEIAClient(cfg.EIAAPIKey, fetchTimeout, log)
	}
	var store economics.PriceStore
	if !cfg.DemoMode {
		store = repo.Price
	}
	prices := economics.NewPriceResolver(provider, store,
		cfg.FallbackMarginalPriceMWh, cfg.FallbackFuelPriceMMBtu, log)

	svc := service.NewDroughtService(service.Deps{
		Repo:              repo,
		Ingestor:          ingestor,
		Params:            param.New(complete, log),
		Economy:           economics.NewEngine(cfg.HeatRateMMBtuPerMWh, log),
		Prices:            prices,
		ProjectionDefault: cfg.ProjectionDaysDefault,
		Logger:            log,
	})

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	rest.SetupRoutes(apiRouter, rest.NewHandler(svc, log))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}
