package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/config"
	"github.com/lwai/timeback-onboarding/internal/infra/blob"
	"github.com/lwai/timeback-onboarding/internal/infra/database"
	"github.com/lwai/timeback-onboarding/internal/infra/gsuite"
	"github.com/lwai/timeback-onboarding/internal/infra/http/handlers"
	"github.com/lwai/timeback-onboarding/internal/infra/http/middleware"
	"github.com/lwai/timeback-onboarding/internal/infra/integration/gchat"
	"github.com/lwai/timeback-onboarding/internal/infra/integration/hubspot"
	"github.com/lwai/timeback-onboarding/internal/infra/integration/timeback"
	"github.com/lwai/timeback-onboarding/internal/infra/mail"
	"github.com/lwai/timeback-onboarding/internal/infra/queue"
	"github.com/lwai/timeback-onboarding/internal/usecase"
)

func main() {
	once := flag.Bool("once", false, "run a single onboarding batch and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Blob storage (CRM exports)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("aws config load failed", zap.Error(err))
	}
	leadSource := blob.NewS3LeadSource(
		s3.NewFromConfig(awsCfg),
		cfg.LeadsBucket, cfg.LeadsKey, cfg.AccountsKey,
		logger,
	)

	// 2. Google Workspace (ops config, audit log, trackers)
	gClient := gsuite.NewClient(gsuite.StaticToken(cfg.GoogleAccessToken))
	sheets := gsuite.NewSheets(gClient, cfg.ConfigSpreadsheetID)
	configSource := gsuite.NewConfigSource(sheets)
	trackerStore := gsuite.NewTrackerStore(gClient)

	// 3. Platform client
	platform := timeback.NewClient(cfg.TimeBackBaseURL, cfg.TimeBackClientID, cfg.TimeBackClientSecret)

	// 4. Core pipeline
	pipeline := &usecase.RunPipelineUseCase{
		Leads:           leadSource,
		Config:          configSource,
		Apps:            platform,
		Executor:        usecase.NewExecutor(platform, cfg.Workers, cfg.CallDelay, logger),
		Provisioner:     usecase.NewProvisioner(trackerStore, cfg.TrackerFolderID, logger),
		Reporter:        usecase.NewReporter(sheets, logger),
		MaxLeadAge:      cfg.MaxLeadAge,
		TrackerProperty: cfg.HubSpotTrackerProperty,
		Logger:          logger,
	}

	// 5. Optional collaborators
	if cfg.ChatWebhookURL != "" {
		pipeline.Notifier = gchat.NewNotifier(gchat.NewClient(cfg.ChatWebhookURL))
	}

	db := openDatabase(cfg, logger)
	if db != nil {
		defer db.Close()
		pipeline.Ledger = &database.RunRepository{DB: db}
	}

	if cfg.MailHost != "" && len(cfg.MailTo) > 0 {
		pipeline.Mailer = mail.NewEmailSender(
			cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass,
			cfg.MailFrom, cfg.MailTo,
		)
	}

	var rabbit *queue.RabbitMQ
	if cfg.RabbitMQHost != "" && cfg.HubSpotAccessToken != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)
		if err != nil {
			logger.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		defer rabbit.Close()

		pipeline.Queue = queue.NewProducer(rabbit.Conn, rabbit.Ch)

		worker := queue.NewWorker(rabbit.Ch, hubspot.NewClient(cfg.HubSpotAccessToken), logger)
		go worker.Start(ctx, queue.QueueName)
	}

	if *once {
		summary, err := pipeline.Execute(ctx)
		if err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
		logger.Info("batch done",
			zap.Int("accounts_created", summary.AccountsCreated),
			zap.Int("rejected", summary.Rejected()))
		return
	}

	// 6. HTTP trigger server
	runHandler := handlers.NewRunHandler(pipeline, logger)
	healthHandler := handlers.NewHealthHandler(db, connOrNil(rabbit))

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/run", runHandler.Trigger)
	r.Get("/healthz", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	logger.Info("onboarding runner listening", zap.String("addr", cfg.ListenAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// openDatabase connects the run ledger. The ledger is optional: a missing
// DATABASE_URL or an unreachable database disables it instead of blocking
// onboarding.
func openDatabase(cfg *config.Config, logger *zap.Logger) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("run ledger unavailable", zap.Error(err))
		return nil
	}
	return db
}

func connOrNil(rabbit *queue.RabbitMQ) *amqp091.Connection {
	if rabbit == nil {
		return nil
	}
	return rabbit.Conn
}
