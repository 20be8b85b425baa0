package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/config"
	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/repositories"
	"alfredoptarigan/nexus-talent/internal/services"
)

// application holds the wired services shared by every command.
type application struct {
	cfg          *config.Config
	log          *zap.Logger
	gemini       services.GeminiService
	store        *services.StateStore
	orchestrator *services.ChatOrchestrator
	workspace    *services.WorkspaceService
	prompts      *services.PromptBuilder

	// index, worker and search are nil when QDRANT_ENABLED is false.
	index  services.CandidateIndex
	worker services.Worker
	search *services.CandidateSearch
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	log, err := config.NewLogger(cfg, verbose)
	if err != nil {
		return nil, nil, err
	}
	log.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))
	return cfg, log, nil
}

func newKeyValueRepository(cfg *config.Config, log *zap.Logger) (repositories.KeyValueRepository, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		return repositories.NewGormKeyValueRepository(db, cfg.Storage.MaxStateBytes), nil
	case config.BackendMemory:
		log.Warn("⚠️ Using in-memory state, nothing survives a restart")
		return repositories.NewMemoryKeyValueRepository(cfg.Storage.MaxStateBytes), nil
	case config.BackendFile, "":
		repo := repositories.NewFileKeyValueRepository(cfg.Storage.StatePath, cfg.Storage.MaxStateBytes)
		if err := repo.EnsureDir(); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.Storage.Backend)
	}
}

// newApplication wires storage, the provider, the orchestrator and the
// optional candidate index. bootstrap restores the saved workspace, opens
// the first chat and seeds PLAYBOOKS_FILE. Without it the loaded state is
// held in memory and nothing is written until a command changes it.
func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger, bootstrap bool) (*application, error) {
	repo, err := newKeyValueRepository(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state storage: %w", err)
	}
	persister := services.NewStatePersister(repo, cfg.Storage.StateKey, log)
	loaded, ok := persister.Load()
	if !ok {
		loaded = models.NewAppState()
	}
	store := services.NewStateStore(models.NewAppState(), persister)
	log.Info("✅ State storage initialized", zap.String("backend", cfg.Storage.Backend), zap.Bool("restored", ok))

	instruction, err := services.LoadSystemInstruction(cfg.Gemini.SystemInstructionPath)
	if err != nil {
		return nil, err
	}
	gemini, err := services.NewGeminiService(ctx, cfg.Gemini, instruction, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini AI: %w", err)
	}
	log.Info("✅ Gemini AI initialized", zap.String("model", cfg.Gemini.ChatModel))

	registry := services.NewSessionRegistry(gemini, log)
	probe := services.NewNetProbe(cfg.Network.ProbeAddr, cfg.Network.ProbeTimeout)
	orchestrator := services.NewChatOrchestrator(store, registry, probe, log)

	a := &application{
		cfg:          cfg,
		log:          log,
		gemini:       gemini,
		store:        store,
		orchestrator: orchestrator,
		prompts:      services.NewPromptBuilder(),
	}

	if cfg.Qdrant.Enabled {
		index, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
		}
		if err := index.InitCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant collection: %w", err)
		}
		log.Info("✅ Qdrant initialized successfully")

		a.index = index
		a.worker = services.NewWorker(gemini, index, cfg.Worker.Concurrency, cfg.Worker.RetryMaxAttempts, cfg.Worker.RetryInitialDelay, log)
		a.search = services.NewCandidateSearch(gemini, index)
	}

	a.workspace = services.NewWorkspaceService(store, a.worker, a.prompts, log)

	if bootstrap {
		// A failed first session is already reported as a banner.
		if err := orchestrator.Bootstrap(ctx, loaded); err != nil {
			log.Warn("⚠️ First chat session could not start", zap.Error(err))
		}
	} else {
		store.Restore(loaded.Reconcile())
		return a, nil
	}

	playbooks, err := services.LoadPlaybooks(cfg.Storage.PlaybooksFile)
	if err != nil {
		return nil, err
	}
	if n := a.workspace.ImportPlaybooks(playbooks); n > 0 {
		log.Info("📚 Playbooks imported", zap.Int("count", n), zap.String("file", cfg.Storage.PlaybooksFile))
	}

	return a, nil
}
