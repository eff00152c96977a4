// Package main is the kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kotae/internal/chat"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/seed"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/vectordb"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so that running from the project
// dir uses the project's config. Returns the config and the path actually
// loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "seed":
		runSeed()
	case "stats":
		runStats()
	case "clear":
		runClear()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		extractor := extract.NewExtractor()
		svc := components.Retrieval
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				content, err := extractor.Extract(path)
				if err != nil {
					logger.Warn("watch extract failed", zap.String("path", path), zap.Error(err))
					return
				}
				if strings.TrimSpace(content) == "" {
					return
				}
				metadata := map[string]interface{}{"source": "watch", "path": path}
				if !svc.AddDocument(context.Background(), content, metadata) {
					logger.Warn("watch ingest failed", zap.String("path", path))
				}
			},
			logger,
		)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		go watchSvc.IngestExisting()
	}

	srv := server.NewServer(components.Orchestrator, components.Retrieval, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildMessage joins all positional args with spaces so multi-word messages
// work the same with or without shell quoting.
func buildMessage(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	message := buildMessage(fs.Args())
	if message == "" {
		fmt.Println("Usage: kotae ask [flags] <message>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		var resp models.ChatResponse
		if err := postJSON(*serverURL+"/api/v1/chat", models.ChatRequest{Message: message}, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteChatResponse(os.Stdout, &resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()
	resp, err := components.Orchestrator.Ask(context.Background(), message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	metadataJSON := fs.String("metadata", "", "document metadata as a JSON object")
	file := fs.String("file", "", "read content from a document file instead of arguments")
	_ = fs.Parse(os.Args[2:])

	var content string
	if *file != "" {
		extracted, err := extract.NewExtractor().Extract(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Extract failed: %v\n", err)
			os.Exit(1)
		}
		content = strings.TrimSpace(extracted)
	} else {
		content = buildMessage(fs.Args())
	}
	if content == "" {
		fmt.Println("Usage: kotae add [flags] <content>")
		os.Exit(1)
	}

	var metadata map[string]interface{}
	if *metadataJSON != "" {
		if err := json.Unmarshal([]byte(*metadataJSON), &metadata); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid metadata JSON: %v\n", err)
			os.Exit(1)
		}
	}

	if *serverURL != "" {
		var resp map[string]string
		if err := postJSON(*serverURL+"/api/v1/documents", models.DocumentInput{Content: content, Metadata: metadata}, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Document added")
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()
	if !components.Retrieval.AddDocument(context.Background(), content, metadata) {
		fmt.Fprintln(os.Stderr, "Add failed: document store unavailable")
		os.Exit(1)
	}
	fmt.Println("Document added")
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	topK := fs.Int("top-k", 5, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := buildMessage(fs.Args())
	if query == "" {
		fmt.Println("Usage: kotae search [flags] <query>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		var resp models.SearchResponse
		body := map[string]interface{}{"query": query, "top_k": *topK}
		if err := postJSON(*serverURL+"/api/v1/search", body, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, &resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()
	start := time.Now()
	results := components.Retrieval.Search(context.Background(), query, *topK)
	if results == nil {
		results = []*models.SearchResult{}
	}
	resp := &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     query,
		QueryTime: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		var resp struct {
			Added int `json:"added"`
		}
		if err := postJSON(*serverURL+"/api/v1/seed", nil, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added %d sample documents\n", resp.Added)
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()
	added, err := seed.Seed(context.Background(), components.Retrieval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %d sample documents\n", added)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var stats *models.Stats
	if *serverURL != "" {
		var s models.Stats
		if err := getJSON(*serverURL+"/api/v1/stats", &s); err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		stats = &s
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()
		stats = components.Retrieval.Stats(context.Background())
	}
	if err := cli.WriteStats(os.Stdout, stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run against local storage directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Clear failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Println("All documents cleared")
		return
	}

	components := mustInitialize(*configPath)
	defer components.Close()
	if !components.Retrieval.Clear(context.Background()) {
		fmt.Fprintln(os.Stderr, "Clear failed: document store unavailable")
		os.Exit(1)
	}
	fmt.Println("All documents cleared")
}

func postJSON(url string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Embedder     embedding.Embedder
	Store        vectordb.Store
	Keyword      keyword.Index
	Retrieval    *retrieval.Service
	Orchestrator *chat.Orchestrator
}

func (c *Components) Close() {
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// mustInitialize loads config, builds a logger and the component stack, and
// exits on failure. Used by the direct-storage command paths.
func mustInitialize(configPath string) *Components {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")

	var embedder embedding.Embedder
	if apiKey != "" {
		openaiEmbedder, err := embedding.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = openaiEmbedder
	} else {
		logger.Warn("OPENAI_API_KEY not set, using mock embedder")
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)

	storePath := cfg.Storage.Path
	if cfg.Storage.Backend == vectordb.BackendSQLite {
		storePath = cfg.Storage.DatabasePath
	}
	store, err := vectordb.New(ctx, vectordb.Options{
		Backend:    cfg.Storage.Backend,
		Path:       storePath,
		Dimensions: embedder.Dimensions(),
		Milvus: vectordb.MilvusConfig{
			Host:       cfg.Milvus.Host,
			Token:      os.Getenv("MILVUS_TOKEN"),
			Collection: cfg.Milvus.Collection,
			NList:      cfg.Milvus.NList,
			NProbe:     cfg.Milvus.NProbe,
		},
		Logger: logger,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	svcOpts := []retrieval.Option{retrieval.WithLogger(logger)}
	var kwIndex keyword.Index
	if cfg.Storage.KeywordIndexPath != "" {
		bleveIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
		if err != nil {
			// Keyword retrieval is a degraded path only; run without it.
			logger.Warn("keyword index unavailable", zap.Error(err))
		} else {
			kwIndex = bleveIndex
			svcOpts = append(svcOpts, retrieval.WithKeywordIndex(bleveIndex))
		}
	}
	svc := retrieval.NewService(embedder, store, svcOpts...)

	var completer llm.Completer
	if apiKey != "" {
		client, err := llm.NewOpenAIClient(apiKey, cfg.Chat.Model, cfg.Chat.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize completion client: %w", err)
		}
		completer = client
	} else {
		logger.Warn("OPENAI_API_KEY not set, chat will use fallback responses")
	}
	orchestrator := chat.NewOrchestrator(completer, svc, chat.Options{
		SystemPrompt: cfg.Chat.SystemPrompt,
		MaxTokens:    cfg.Chat.MaxTokens,
		Temperature:  cfg.Chat.Temperature,
		TopK:         cfg.Chat.TopK,
	}, logger)

	return &Components{
		Embedder:     embedder,
		Store:        store,
		Keyword:      kwIndex,
		Retrieval:    svc,
		Orchestrator: orchestrator,
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - Retrieval-augmented chat service

Usage:
  kotae server [flags]            Start the HTTP server
  kotae ask [flags] <message>     Ask a question
  kotae add [flags] <content>     Add a document to the knowledge base
  kotae search [flags] <query>    Search stored documents
  kotae seed [flags]              Load the built-in sample documents
  kotae stats [flags]             Show store statistics
  kotae clear [flags]             Delete all documents
  kotae version                   Show version
  kotae help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use --server ""
                     to run against local storage without a running server.
  --output string    Output format: text or json (ask, search, stats)

Add Flags:
  --metadata string  Document metadata as a JSON object
  --file string      Read content from a document file (.txt, .md, .pdf, .docx, .xlsx)

Environment:
  OPENAI_API_KEY     Enables OpenAI embeddings and chat completion. Without it,
                     the mock embedder and fallback responder are used.
  MILVUS_TOKEN       Auth token for the milvus storage backend.

Examples:
  kotae server
  kotae seed
  kotae ask "what is retrieval augmented generation?"
  kotae add --metadata '{"topic":"go"}' "Go is a compiled language"
  kotae add --file notes.pdf
  kotae search "vector database"
  kotae stats --output json
  kotae clear`)
}
