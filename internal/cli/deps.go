package cli

import (
	"fmt"
	"time"

	"agentrag/config"
	"agentrag/internal/adapter/analyzer"
	"agentrag/internal/adapter/chunker"
	"agentrag/internal/adapter/completion"
	"agentrag/internal/adapter/embedding"
	"agentrag/internal/adapter/extractor"
	"agentrag/internal/adapter/retriever"
	"agentrag/internal/adapter/store"
	"agentrag/internal/adapter/vectorindex"
	"agentrag/internal/agent"
	"agentrag/internal/port"
	"agentrag/internal/router"
	"agentrag/internal/usecase"
)

// deps wires the full service graph from configuration. Close releases
// the underlying databases.
type deps struct {
	store    *store.BoltStore
	index    *vectorindex.TenantIndex
	embedder port.Embedder
	ingestor *usecase.Ingestor
	chat     *usecase.Chat
	retr     port.Retriever
}

func (d *deps) Close() {
	if d.index != nil {
		_ = d.index.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}

func openDeps(cfg *config.Config) (*deps, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tokenizer := analyzer.NewTokenizer()

	embedder, err := buildEmbedder(cfg, tokenizer)
	if err != nil {
		return nil, err
	}

	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewBoltStore(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	idx, err := vectorindex.Open(cfg.IndexPath(), embedder.Dimension(), logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	var reranker port.Reranker
	if cfg.Retrieve.RerankEnabled {
		reranker = retriever.NewTermOverlapReranker(tokenizer)
	}

	retr := retriever.NewHybridRetriever(idx, embedder, st, tokenizer, retriever.Options{
		Reranker:            reranker,
		SemanticWeight:      cfg.Retrieve.SemanticWeight,
		CandidateMultiplier: cfg.Retrieve.CandidateMultiplier,
		Logger:              logger,
	})

	// Registration order doubles as the static tie-break priority.
	registry := agent.NewRegistry(
		agent.NewDocQA(retr, completer, cfg.Retrieve.TopK, logger),
		agent.NewAPIExec(completer),
		agent.NewFormGen(completer),
		agent.NewAnalytics(completer),
	)
	fallback := agent.NewGeneral(completer)

	rt := router.New(registry, fallback, cfg.Router.AcceptThreshold, cfg.Router.TieEpsilon, logger)

	chk := chunker.NewWindowChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, tokenizer)
	ing := usecase.NewIngestor(st, idx, embedder, extractor.DefaultRegistry(), chk, logger)

	return &deps{
		store:    st,
		index:    idx,
		embedder: embedder,
		ingestor: ing,
		chat:     usecase.NewChat(st, rt, logger),
		retr:     retr,
	}, nil
}

func buildEmbedder(cfg *config.Config, tokenizer *analyzer.Tokenizer) (port.Embedder, error) {
	timeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second

	switch cfg.Embedding.Provider {
	case "local":
		return embedding.NewLocalEmbedder(cfg.Embedding.Dimension, tokenizer), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model,
			cfg.Embedding.BaseURL, cfg.Embedding.Dimension, cfg.Embedding.BatchSize, timeout)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func buildCompleter(cfg *config.Config) (port.Completer, error) {
	timeout := time.Duration(cfg.Completion.TimeoutSeconds) * time.Second

	switch cfg.Completion.Provider {
	case "template":
		return completion.NewTemplateCompleter(), nil
	case "openai":
		return completion.NewOpenAICompleter(cfg.Completion.APIKeyEnv, cfg.Completion.Model,
			cfg.Completion.BaseURL, timeout)
	case "ollama":
		return completion.NewOllamaCompleter(cfg.Completion.Model, cfg.Completion.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Completion.Provider)
	}
}
