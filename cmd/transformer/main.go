package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"price-pipeline/cmd"
	"price-pipeline/internal/cloud"
	"price-pipeline/internal/config"
	"price-pipeline/internal/logging"
	"price-pipeline/internal/notify"
	"price-pipeline/internal/pipeline"
	"price-pipeline/internal/runargs"
	"price-pipeline/internal/telemetry"
	"price-pipeline/internal/transform"
	"price-pipeline/internal/trigger"
)

func main() {
	argv := os.Args[1:]

	// Run arguments come first: without them nothing else is worth starting.
	rc, err := runargs.RunContextFromArgs(argv)
	if err != nil {
		log.Fatalf("Invalid job arguments: %v", err)
	}
	source, err := runargs.SourceOverride(argv)
	if err != nil {
		log.Fatalf("Invalid job arguments: %v", err)
	}

	envFile, err := runargs.EnvFilePath(argv)
	if err != nil {
		log.Fatalf("Invalid job arguments: %v", err)
	}
	cmd.LoadEnvFile(envFile)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Configure(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	slog.Info("starting transformer", "workflow", rc.WorkflowName, "run_id", rc.RunId)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := cloud.NewClients(ctx, cloud.Config{
		Region:          cfg.AWSRegion,
		S3Endpoint:      cfg.S3EndpointURL,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create AWS clients: %v", err)
	}

	store := cmd.CreateObjectStore(cfg, clients.S3)

	resolver := trigger.NewResolver(clients.Glue, clients.CloudTrail, trigger.Options{
		EventName: cfg.TriggerEventName,
	})

	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.NotifyTimeout)

	transformOpts := transform.DefaultOptions()
	transformOpts.ExpectedCurrency = cfg.ExpectedCurrency

	opts := pipeline.Options{
		Transform:      transformOpts,
		OutputFileName: cfg.OutputFileName,
	}

	if ledger := cmd.CreateLedger(cfg); ledger != nil {
		opts.Ledger = ledger
	}

	if publisher := cmd.CreatePublisher(cfg); publisher != nil {
		defer publisher.Close()
		opts.Publisher = publisher
	}

	var metrics *telemetry.RunMetrics
	if cfg.PushgatewayURL != "" {
		metrics = telemetry.NewRunMetrics()
		opts.Metrics = metrics
	}

	job := pipeline.NewJob(resolver, store, notifier, opts)
	outcome, runErr := job.Run(ctx, rc, source)

	if metrics != nil {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, rc.WorkflowName); err != nil {
			slog.Warn("unable to push run metrics", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		log.Fatalf("Transformer run failed: %v", runErr)
	}

	slog.Info("transformer finished", "dest", outcome.Dest.String(), "rows_out", outcome.Report.RowsOut)
}
