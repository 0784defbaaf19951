package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"warranty-registration/activities"
	"warranty-registration/api"
	"warranty-registration/codec"
	"warranty-registration/config"
	"warranty-registration/logging"
	"warranty-registration/models"
	"warranty-registration/review"
	"warranty-registration/workflows"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

// Version information - update this when deploying new versions
const (
	WorkerVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("worker", pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	fixtures := fs.String("fixtures", "", "YAML file seeding the review store (default: bundled demo requests)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Resolve(os.LookupEnv)
	if err != nil {
		return err
	}
	if fs.Changed("fixtures") {
		cfg.Fixtures = *fixtures
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Get or generate encryption key
	keyBytes, err := cfg.MasterKey()
	if err != nil {
		return err
	}
	if keyBytes == nil {
		keyBytes = make([]byte, codec.KeySize)
		if _, err := rand.Read(keyBytes); err != nil {
			return fmt.Errorf("failed to generate encryption key: %w", err)
		}
		logger.Warn("Generated encryption key, set ENCRYPTION_KEY to use this key in production",
			zap.String("key", hex.EncodeToString(keyBytes)))
	}

	// Create data converter with encryption
	dataConverter, err := codec.NewEncryptionDataConverter(keyBytes)
	if err != nil {
		return fmt.Errorf("failed to create encryption data converter: %w", err)
	}

	// Create Temporal client with encryption
	c, err := client.Dial(client.Options{
		HostPort:      cfg.Temporal.Address,
		Namespace:     cfg.Temporal.Namespace,
		DataConverter: dataConverter,
		Logger:        logging.NewTemporalLogger(logger.Named("temporal")),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	store, err := openStore(cfg.Fixtures)
	if err != nil {
		return err
	}
	counts, err := store.CountByStatus()
	if err != nil {
		return err
	}
	logger.Info("Loaded warranty requests", zap.String("fixtures", orDefault(cfg.Fixtures, "bundled")), zap.Any("by_status", counts))

	// Note: Worker versioning requires server-side setup
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		BuildID:                                cfg.Temporal.BuildID,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.RegistrationWorkflow)
	w.RegisterWorkflow(workflows.ReviewDecisionWorkflow)

	// Register activities
	registrationActivities := activities.NewRegistrationActivities(cfg.Services.OrderServiceURL, cfg.Services.MailServiceURL)
	w.RegisterActivity(registrationActivities.LookupOrder)
	w.RegisterActivity(registrationActivities.SendVerificationEmail)
	w.RegisterActivity(registrationActivities.RequestManualReview)
	w.RegisterActivity(registrationActivities.SendActivationNotice)

	reviewActivities := activities.NewReviewActivities(store, cfg.Services.MailServiceURL)
	w.RegisterActivity(reviewActivities.UpdateRequestStatus)
	w.RegisterActivity(reviewActivities.NotifyDecision)

	srv, err := api.NewServer(api.Options{
		Registrations: api.NewTemporalRegistrations(c, api.RegistrationSettings{
			TaskQueue:           cfg.Temporal.TaskQueue,
			VerifyBaseURL:       cfg.HTTP.PublicURL,
			FormTimeout:         cfg.Registration.FormTimeout,
			VerificationTimeout: cfg.Registration.VerificationTimeout,
		}),
		Store:        store,
		Decider:      api.NewTemporalDecider(c, cfg.Temporal.TaskQueue),
		Branding:     cfg.Branding,
		SessionCache: cfg.HTTP.SessionCache,
		Logger:       logger.Named("http"),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("Starting Temporal worker",
		zap.String("version", WorkerVersion),
		zap.String("build_id", cfg.Temporal.BuildID),
		zap.String("temporal_address", cfg.Temporal.Address),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.Strings("workflows", []string{workflows.RegistrationWorkflowName, workflows.ReviewDecisionWorkflowName}),
		zap.String("order_service", orDefault(cfg.Services.OrderServiceURL, "demo parity lookup")),
		zap.String("mail_service", orDefault(cfg.Services.MailServiceURL, "log only")),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("encryption_key_id", keyID(keyBytes)),
	)

	// Stop the worker if the API cannot serve
	interrupt := make(chan interface{})
	go func() {
		select {
		case sig := <-worker.InterruptCh():
			interrupt <- sig
		case err, ok := <-serveErr:
			if ok {
				logger.Error("HTTP server failed", zap.Error(err))
			}
			close(interrupt)
		}
	}()

	// Start worker
	runErr := w.Run(interrupt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	if runErr != nil {
		return fmt.Errorf("unable to start worker: %w", runErr)
	}
	return nil
}

func openStore(path string) (*review.MemoryStore, error) {
	var (
		requests []models.WarrantyRequest
		err      error
	)
	if path != "" {
		requests, err = review.LoadFixtures(path)
	} else {
		requests, err = review.DefaultFixtures()
	}
	if err != nil {
		return nil, err
	}
	return review.NewMemoryStore(requests)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func keyID(key []byte) string {
	c, err := codec.NewCodec(key)
	if err != nil {
		return ""
	}
	return c.KeyID()
}
