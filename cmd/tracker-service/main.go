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
	"github.com/prontrack/platform/pkg/agenda"
	"github.com/prontrack/platform/pkg/common/config"
	"github.com/prontrack/platform/pkg/common/database"
	"github.com/prontrack/platform/pkg/common/kafka"
	"github.com/prontrack/platform/pkg/common/logger"
	"github.com/prontrack/platform/pkg/observability/metrics"
	"github.com/prontrack/platform/pkg/record"
	"github.com/prontrack/platform/pkg/settings"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	recordRepo := record.NewRepository(db)
	if err := recordRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate record tables")
	}

	digestRepo := agenda.NewRepository(db)
	if err := digestRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate agenda tables")
	}

	settingsRepo := settings.NewRepository(db, database.GetRedis(), cfg.DestinationsCacheTTL)
	if err := settingsRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate settings tables")
	}

	rules, err := agenda.LoadRules(cfg.AgendaRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("failed to load agenda rules, using defaults")
	}
	extractor, err := agenda.NewExtractor(rules)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid agenda rules")
	}

	var movementsProducer *kafka.Producer
	if cfg.MovementsKafkaTopic != "" {
		movementsProducer = kafka.NewProducer(cfg.MovementsKafkaTopic)
		defer movementsProducer.Close()
	}
	var agendaProducer *kafka.Producer
	if cfg.AgendaKafkaTopic != "" {
		agendaProducer = kafka.NewProducer(cfg.AgendaKafkaTopic)
		defer agendaProducer.Close()
	}

	recordService := record.NewService(recordRepo, movementsProducer)
	settingsService := settings.NewService(settingsRepo)
	agendaService := agenda.NewService(extractor, recordService, digestRepo, agendaProducer, cfg.SourcePool, cfg.AgendaDestination)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	record.NewHandler(recordService, settingsService).Register(api)
	agenda.NewHandler(agendaService, cfg.MaxRequestBody).Register(api)
	settings.NewHandler(settingsService).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Tracker Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Tracker Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Warn("failed to close postgres")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Warn("failed to close redis")
	}

	logger.Log.Info("Tracker Service stopped")
}
