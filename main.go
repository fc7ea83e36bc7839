package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/auth"
	"github.com/fleetlens/fleetlens-engine/pkg/chat"
	"github.com/fleetlens/fleetlens-engine/pkg/config"
	"github.com/fleetlens/fleetlens-engine/pkg/database"
	"github.com/fleetlens/fleetlens-engine/pkg/discovery"
	"github.com/fleetlens/fleetlens-engine/pkg/docstore"
	"github.com/fleetlens/fleetlens-engine/pkg/handlers"
	"github.com/fleetlens/fleetlens-engine/pkg/llm"
	"github.com/fleetlens/fleetlens-engine/pkg/logging"
	"github.com/fleetlens/fleetlens-engine/pkg/mcp"
	"github.com/fleetlens/fleetlens-engine/pkg/mcp/tools"
	"github.com/fleetlens/fleetlens-engine/pkg/middleware"
	"github.com/fleetlens/fleetlens-engine/pkg/relstore"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("postgres", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("postgres_schema", cfg.Database.Schema),
		zap.String("llm_provider", cfg.LLM.Provider))

	ctx := context.Background()

	// Both stores are process-wide singletons; an unreachable store at
	// startup is fatal.
	mongo, err := database.NewMongo(ctx, &database.MongoConfig{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal("document store unreachable", zap.Error(err))
	}
	defer func() { _ = mongo.Close(ctx) }()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("relational store unreachable", zap.Error(err))
	}
	defer db.Close()

	documents := docstore.NewStore(mongo.Database, logger)
	relational := relstore.NewStore(db.Pool, cfg.Database.Schema, logger)
	engine := discovery.NewEngine(documents, logger)

	registry := tools.NewRegistry()
	tools.RegisterDocumentTools(registry, &tools.DocumentToolDeps{Store: documents, Logger: logger})
	tools.RegisterDiscoveryTools(registry, &tools.DiscoveryToolDeps{Engine: engine, Logger: logger})
	tools.RegisterRelationalTools(registry, &tools.RelationalToolDeps{Store: relational, Logger: logger})

	// Tool transport: MCP over streamable HTTP behind the access-key guard.
	calls := mcp.NewCallLogger(logger)
	mcpServer := mcp.NewServer(cfg.MCP.ServerName, cfg.Version, calls, logger)
	registry.AttachTo(mcpServer.MCP())
	guard := mcp.NewGuard(cfg.MCP.AccessKey, mcp.NewSessionRegistry(), logger)

	provider, err := llm.NewProvider(&llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("oracle configuration invalid", zap.Error(err))
	}

	definitions, err := registry.Definitions()
	if err != nil {
		logger.Fatal("tool catalog rendering failed", zap.Error(err))
	}

	chatService := chat.NewService(provider, registry, definitions, chat.Config{
		MaxToolIterations: cfg.LLM.MaxToolIterations,
		HistoryCeiling:    cfg.Chat.HistoryCeiling,
		HistoryKeepRecent: cfg.Chat.HistoryKeepRecent,
		TokenBudget:       cfg.Chat.TokenBudget,
	}, logger)

	authorizer := auth.NewAuthorizer(auth.NewMongoSessionStore(mongo.Database), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(authorizer, chat.NewManager(), chatService, logger).RegisterRoutes(mux)
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(guard.Wrap(mcpServer.NewStreamableHTTPServer())))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting fleetlens-engine",
		zap.String("addr", addr),
		zap.Strings("tools", registry.Names()))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
