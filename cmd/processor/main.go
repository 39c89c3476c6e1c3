package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/config"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/handlers"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/qualtrics"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/repository"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/services"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Info("Starting Qualtrics data processor")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	if err := cfg.EnsureDataDir(); err != nil {
		log.WithError(err).Fatal("Failed to create data directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := repository.Open(ctx, cfg.GetDatabaseDSN(), cfg.DBPoolMinConn, cfg.DBPoolMaxConn)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	client, err := qualtrics.NewClient(&qualtrics.Config{
		APIToken:   cfg.QualtricsAPIToken,
		DataCenter: cfg.QualtricsDataCenter,
		Client:     &http.Client{Timeout: cfg.APITimeout},
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create Qualtrics client")
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.APITimeout)
	if err := client.TestConnection(ctx); err != nil {
		log.WithError(err).Warn("Qualtrics API not reachable at startup")
	}
	cancel()

	extractService := services.NewExtractService(repo, client, cfg.DataDir, cfg.ExportPollMax, cfg.ExportPollInterval)
	loadService := services.NewLoadService(repo, cfg.Location())
	transformService := services.NewTransformService(repo, extractService, loadService, cfg.DataDir)
	appService := services.NewAppService(repo, extractService, transformService, loadService, cfg.QualtricsDataCenter, cfg.DataDir)

	handler := handlers.NewHandler(appService)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"address":     server.Addr,
			"data_center": cfg.QualtricsDataCenter,
			"environment": cfg.Env,
		}).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	waitForShutdown(server, appService)
}

// waitForShutdown waits for shutdown signals and gracefully shuts down
func waitForShutdown(server *http.Server, appService *services.AppService) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal, initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	} else {
		log.Info("HTTP server shut down successfully")
	}

	if err := appService.Close(); err != nil {
		log.WithError(err).Error("Failed to shutdown application service")
	}

	log.Info("Graceful shutdown completed")
}
