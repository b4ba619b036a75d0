package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zerorepo/zerorepo/internal/codegen"
	"github.com/zerorepo/zerorepo/internal/config"
	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/jobstore"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/orchestrator"
	"github.com/zerorepo/zerorepo/internal/sandbox"
)

// buildStore loads the domain ontology named by cfg.Embedding.OntologyPath
// (if any) into a freshly constructed, engine-backed embedding store.
func buildStore(cfg *config.Config) (*embedding.Store, error) {
	engine, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})
	if err != nil {
		return nil, fmt.Errorf("build embedding engine: %w", err)
	}

	store := embedding.NewStore(engine)

	if cfg.Name != "" {
		dataDir := cfg.Name + "-data"
		if err := os.MkdirAll(dataDir, 0755); err == nil {
			if idx, err := embedding.NewANNIndex(filepath.Join(dataDir, "feature_vec_index.db"), engine.Dimensions()); err == nil {
				store = store.WithANNIndex(idx)
			}
		}
	}

	if cfg.Embedding.OntologyPath == "" {
		return store, nil
	}

	data, err := os.ReadFile(cfg.Embedding.OntologyPath)
	if err != nil {
		return nil, &config.ConfigError{Msg: fmt.Sprintf("reading ontology: %v", err)}
	}
	var tree embedding.OntologyNode
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, &config.ConfigError{Msg: fmt.Sprintf("parsing ontology: %v", err)}
	}

	features := embedding.BuildFromOntology(tree)
	if err := store.Add(context.Background(), features); err != nil {
		return nil, fmt.Errorf("seed store from ontology: %w", err)
	}
	return store, nil
}

// buildGateway builds the LLM gateway client for cfg.LLM, per §4.3.
func buildGateway(cfg *config.Config) llmgw.Gateway {
	return llmgw.NewZAIGateway(llmgw.ZAIConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.GetLLMTimeout(),
	})
}

// buildSandboxer builds the codegen sandbox adapter for cfg.Sandbox, per §4.4.
func buildSandboxer(cfg *config.Config) codegen.Sandboxer {
	return codegen.NewRunnerSandboxer(sandbox.RunConfig{
		PreferDocker:        cfg.Sandbox.PreferDocker,
		SingleTestTimeout:   cfg.GetSingleTestTimeout(),
		FullSuiteTimeout:    cfg.GetFullSuiteTimeout(),
		SingleFileMemoryMB:  cfg.Sandbox.SingleFileMemoryMB,
		FullSuiteMemoryMB:   cfg.Sandbox.FullSuiteMemoryMB,
		NetworkDisabled:     cfg.Sandbox.NetworkDisabled,
		PinnedTestFramework: cfg.Sandbox.PinnedTestFramework,
		InstallCommand:      []string{"pip", "install", "-q"},
		TestCommand:         []string{"pytest", "-q"},
	})
}

// buildOrchestrator wires store, gateway, and sandboxer into a pipeline
// orchestrator, per the Scheduling model of §5.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	gw := buildGateway(cfg)
	sb := buildSandboxer(cfg)
	return orchestrator.New(store, gw, sb, cfg.Execution.CodegenMaxRetries), nil
}

// buildJobStore opens the sqlite-backed job collection named by
// cfg.Server.DatastoreURL, falling back to an in-memory collection when
// unset, per §6's job persistence clause.
func buildJobStore(cfg *config.Config) (jobstore.Collection, func() error, error) {
	if cfg.Server.DatastoreURL == "" {
		return jobstore.NewMemoryCollection(), func() error { return nil }, nil
	}
	store, err := jobstore.NewSQLiteCollection(cfg.Server.DatastoreURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open job store: %w", err)
	}
	return store, store.Close, nil
}
