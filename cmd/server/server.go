package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/heymaaz/t3.chat.cloneathon/internal/config"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/chat"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/title"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/turn"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/auth"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/database"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/llmprovider"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/logger"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/observability"
	chatrepo "github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/repository/chat"
	fileindexrepo "github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/repository/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/scheduler"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/handlers"
	"github.com/heymaaz/t3.chat.cloneathon/internal/worker"
)

// @title Chat API
// @version 1.0
// @description Streaming chat service with incremental response assembly, citations, and file search.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otlpEndpoint := ""
	if cfg.EnableTracing {
		otlpEndpoint = cfg.OTLPEndpoint
	}
	shutdownTelemetry, err := observability.Setup(ctx, observability.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: otlpEndpoint,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := chatrepo.NewConversationRepository(db)
	messageRepository := chatrepo.NewMessageRepository(db)
	fileIndexRepository := fileindexrepo.NewRepository(db)

	providerRegistry := llmprovider.NewRegistry(llmprovider.Config{
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		StreamTimeout:     cfg.StreamTimeout,
	})

	jobQueue := scheduler.NewPostgresQueue(db, log)

	appendEngine := chat.NewAppendEngine(messageRepository, conversationRepository, cfg.MaxMessageLength, log)
	sequencer := chat.NewSequencer(conversationRepository, messageRepository, jobQueue, cfg.TitleDelay, log)
	orchestrator := turn.NewOrchestrator(appendEngine, conversationRepository, messageRepository, providerRegistry, log)
	titleService := title.NewService(conversationRepository, messageRepository, providerRegistry, log)
	citationIndex := fileindex.NewService(fileIndexRepository, log)

	workerPool := worker.NewPool(
		jobQueue,
		orchestrator,
		titleService,
		worker.Config{
			WorkerCount: cfg.WorkerCount,
			JobTimeout:  cfg.TurnTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer func() {
		log.Info().Msg("stopping worker pool")
		workerPool.Stop()
	}()

	handlerProvider := handlers.NewProvider(
		sequencer,
		conversationRepository,
		messageRepository,
		citationIndex,
		providerRegistry.FileService(),
		log,
	)

	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
