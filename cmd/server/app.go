package main

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/analyzer"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/db"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/qa"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/services"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/storage"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

// application holds the services shared by every command.
type application struct {
	cfg         *config.Config
	logger      *utils.Logger
	db          *sqlx.DB
	documents   services.DocumentService
	connections services.ConnectionService
	projects    services.ProjectService
}

func newApplication(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*application, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var archive storage.Storage
	if cfg.S3.Enabled {
		archive, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("init file archive: %w", err)
		}
		logger.Info("File archive enabled", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.BucketName)
	}

	if !cfg.AI.Enabled() {
		logger.Warn("No AI API key configured, analysis and answers will use fallbacks")
	}
	generator := ai.NewOpenRouterClient(cfg.AI, logger)
	index := knowledge.NewIndex()

	documents := services.NewDocumentService(services.DocumentDeps{
		Repo:        repository.NewDocumentRepository(database),
		Storage:     archive,
		Analyzer:    analyzer.New(generator, logger),
		QA:          qa.NewService(generator, index, cfg.Knowledge, logger),
		Index:       index,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	})

	n, err := documents.RebuildKnowledgeIndex(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("build knowledge index: %w", err)
	}
	logger.Info("Knowledge index built", "entries", n)

	return &application{
		cfg:       cfg,
		logger:    logger,
		db:        database,
		documents: documents,
		connections: services.NewConnectionService(
			repository.NewConnectionRepository(database),
			services.NewRandomSimulator(),
			cfg.Connections.TestLatency,
			cfg.Connections.SyncLatency,
			logger,
		),
		projects: services.NewProjectService(repository.NewProjectRepository(database), logger),
	}, nil
}

func (a *application) Close() error {
	return a.db.Close()
}
