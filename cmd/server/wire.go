//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
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
	chatrepo "github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/repository/chat"
	fileindexrepo "github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/repository/fileindex"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/scheduler"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/handlers"
)

var chatSet = wire.NewSet(
	chatrepo.NewConversationRepository,
	wire.Bind(new(chat.ConversationRepository), new(*chatrepo.ConversationRepository)),
	chatrepo.NewMessageRepository,
	wire.Bind(new(chat.MessageRepository), new(*chatrepo.MessageRepository)),
	fileindexrepo.NewRepository,
	wire.Bind(new(fileindex.Repository), new(*fileindexrepo.Repository)),
	scheduler.NewPostgresQueue,
	wire.Bind(new(chat.TurnScheduler), new(*scheduler.PostgresQueue)),
	newProviderRegistry,
	wire.Bind(new(turn.ProviderResolver), new(*llmprovider.Registry)),
	wire.Bind(new(title.ProviderResolver), new(*llmprovider.Registry)),
	newAppendEngine,
	newSequencer,
	turn.NewOrchestrator,
	title.NewService,
	fileindex.NewService,
	newHandlerProvider,
)

// BuildApplication demonstrates how to assemble the chat service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		chatSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newProviderRegistry(cfg *config.Config) *llmprovider.Registry {
	return llmprovider.NewRegistry(llmprovider.Config{
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		StreamTimeout:     cfg.StreamTimeout,
	})
}

func newAppendEngine(cfg *config.Config, messages chat.MessageRepository, conversations chat.ConversationRepository, log zerolog.Logger) *chat.AppendEngine {
	return chat.NewAppendEngine(messages, conversations, cfg.MaxMessageLength, log)
}

func newSequencer(cfg *config.Config, conversations chat.ConversationRepository, messages chat.MessageRepository, sched chat.TurnScheduler, log zerolog.Logger) *chat.Sequencer {
	return chat.NewSequencer(conversations, messages, sched, cfg.TitleDelay, log)
}

func newHandlerProvider(
	sequencer *chat.Sequencer,
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	citations *fileindex.Service,
	registry *llmprovider.Registry,
	log zerolog.Logger,
) *handlers.Provider {
	return handlers.NewProvider(sequencer, conversations, messages, citations, registry.FileService(), log)
}
