// main package for the annotation-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/script-annotator/internal/config"
	"github.com/book-expert/script-annotator/internal/objectstore"
	"github.com/book-expert/script-annotator/internal/transcript"
	"github.com/book-expert/script-annotator/internal/worker"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), "annotation-service-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.ValidateService()
	if err != nil {
		bootstrapLog.Error("Invalid service configuration: %v", err)

		return fmt.Errorf("invalid service configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "annotation-service.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Connect to NATS and bind the object store buckets
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	transcripts, err := objectstore.New(jetstreamContext, cfg.NATS.TranscriptBucket)
	if err != nil {
		return fmt.Errorf("failed to open transcript bucket: %w", err)
	}

	documents, err := objectstore.New(jetstreamContext, cfg.NATS.DocumentBucket)
	if err != nil {
		return fmt.Errorf("failed to open document bucket: %w", err)
	}

	// 5. Run the worker until interrupted
	annotationWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.AnnotationSubject,
		transcripts,
		documents,
		transcript.MarkerStyle(cfg.Transcript.MarkerStyle),
		finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalLog.System("Annotation-Service successfully initialized. Listening for jobs on subject: %s",
		cfg.NATS.AnnotationSubject)

	err = annotationWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker failed: %w", err)
	}

	finalLog.System("Annotation-Service stopped.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
