package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/api"
	"fleet-maintenance-backend/internal/classifier"
	"fleet-maintenance-backend/internal/db"
	"fleet-maintenance-backend/internal/features"
	"fleet-maintenance-backend/internal/pipeline"
	"fleet-maintenance-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "fleet-backend ", log.LstdFlags)

	// Local development keeps secrets in a .env file; absence is fine.
	if err := godotenv.Load(); err == nil {
		logger.Println("loaded environment from .env")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Load the serialized classifier artifacts up front: a bad model file
	// should fail the process at startup, not the first run.
	screening, err := classifier.Load(cfg.Models.ScreeningPath)
	if err != nil {
		logger.Fatalf("failed to load screening model: %v", err)
	}
	prioritization, err := classifier.Load(cfg.Models.PrioritizationPath)
	if err != nil {
		logger.Fatalf("failed to load prioritization model: %v", err)
	}
	logger.Printf("classifiers loaded: %s, %s", screening.Name(), prioritization.Name())

	var encoding *features.Encoding
	if cfg.Models.EncodingPath != "" {
		encoding, err = features.LoadEncoding(cfg.Models.EncodingPath)
		if err != nil {
			logger.Fatalf("failed to load categorical encoding table: %v", err)
		}
		logger.Printf("categorical encoding table %q loaded", encoding.Version)
	} else {
		logger.Println("no encoding table configured, deriving codes from the roster each run")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Run the pipeline loop in the background
	pipelineSvc := pipeline.NewService(cfg, appStore, screening, prioritization, encoding)
	go pipelineSvc.Run(ctx)

	// Initialize router
	var trigger api.RunTrigger
	if cfg.Pipeline.Enabled {
		trigger = pipelineSvc
	}
	router := api.NewRouter(appStore, &webpushOptions, trigger, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
