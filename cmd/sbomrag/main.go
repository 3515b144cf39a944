// Package main is the sbomrag CLI entry point.
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sbomrag/internal/config"
	"sbomrag/internal/docstore"
	"sbomrag/internal/embedding"
	"sbomrag/internal/engine"
	"sbomrag/internal/models"
	"sbomrag/internal/reasoning"
	"sbomrag/internal/server"
	"sbomrag/internal/watcher"
	"sbomrag/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sbomrag/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "sbomrag server" from the project dir picks up the
// project's config.
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
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "ask":
		runAsk()
	case "projects":
		runProjects()
	case "version", "--version", "-v":
		fmt.Printf("sbomrag version %s\n", version)
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	eng := components.Engine
	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchSvc = watcher.New(cfg.Watch.Directories, func(path string) {
			if err := indexInventoryFile(context.Background(), eng, path); err != nil {
				logger.Warn("watch index inventory failed", zap.String("path", path), zap.Error(err))
			}
		}, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
		defer watchSvc.Stop()
	}

	srv := server.NewServer(eng, cfg.Store.Type, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = index directly into the configured store)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: sbomrag index [flags] <inventory.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	if *serverURL != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read inventory: %v\n", err)
			os.Exit(1)
		}
		resp, err := http.Post(*serverURL+"/api/v1/inventories", "application/json", bytes.NewReader(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Index failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			ProjectID string `json:"project_id"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		fmt.Printf("Inventory indexed: %s\n", out.ProjectID)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := indexInventoryFile(context.Background(), components.Engine, path); err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Inventory indexed from %s\n", path)
}

// askArgsReorder moves flags that appear after the question to the front so
// flag.Parse() sees them. Go's flag package stops at the first non-flag
// argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer directly using the configured store)")
	projectID := fs.String("project", "", "project id (required)")
	outputFormat := fs.String("output", "text", "output format: text (markdown answer) or json (full answer object)")
	_ = fs.Parse(askArgsReorder(os.Args[2:]))

	if *projectID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: sbomrag ask --project <id> [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: sbomrag ask --project <id> [flags] <question>")
		os.Exit(1)
	}

	var answer *models.Answer
	if *serverURL != "" {
		res, err := askViaHTTP(*serverURL, *projectID, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		answer = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		// Direct mode has no server-side cache; ingest the drop directories
		// before answering.
		loadWatchDirectories(cfg, components.Engine, logger)
		res, err := components.Engine.Ask(context.Background(), *projectID, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		answer = res
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(answer); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(answer.Markdown)
		if len(answer.Remediation) > 0 {
			fmt.Println("\n## Remediation Plan")
			for i, step := range answer.Remediation {
				fmt.Printf("\n%d. %s (impact: %s, breakage risk: %s)\n", i+1, step.Title, step.Impact, step.BreakageRisk)
				for _, action := range step.Actions {
					fmt.Printf("   - %s\n", action)
				}
				if len(step.Packages) > 0 {
					fmt.Printf("   Packages: %s\n", strings.Join(step.Packages, ", "))
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, projectID, question string) (*models.Answer, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/projects/"+projectID+"/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var answer models.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &answer, nil
}

func runProjects() {
	fs := flag.NewFlagSet("projects", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/projects")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "List failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Projects []string `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	for _, p := range out.Projects {
		fmt.Println(p)
	}
}

// loadWatchDirectories indexes every inventory JSON found in the configured
// watch directories. Parse failures are logged and skipped.
func loadWatchDirectories(cfg *config.Config, eng *engine.Engine, logger *zap.Logger) {
	for _, dir := range cfg.Watch.Directories {
		matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := indexInventoryFile(context.Background(), eng, path); err != nil {
				logger.Warn("skipping inventory", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

func indexInventoryFile(ctx context.Context, eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var inv models.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("parse inventory %s: %w", path, err)
	}
	return eng.IndexInventory(ctx, &inv)
}

// Components holds initialized services.
type Components struct {
	Store    docstore.Store
	Embedder embedding.Embedder
	Engine   *engine.Engine
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := docstore.NewStore(docstore.FactoryConfig{
		Type:       cfg.Store.Type,
		Path:       cfg.Store.Path,
		Dimensions: cfg.Embedding.Dimensions,
		Qdrant: docstore.QdrantConfig{
			URL:        cfg.Store.Qdrant.URL,
			APIKeyEnv:  cfg.Store.Qdrant.APIKeyEnv,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	embedder, err := embedding.NewEmbedder(embedding.FactoryConfig{
		Type:       cfg.Embedding.Type,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
		BaseURL:    cfg.Embedding.OpenAI.BaseURL,
		APIKeyEnv:  cfg.Embedding.OpenAI.APIKeyEnv,
		Model:      cfg.Embedding.OpenAI.Model,
		Timeout:    time.Duration(cfg.Embedding.OpenAI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	provider, err := reasoning.NewProvider(reasoning.FactoryConfig{
		Type:       cfg.Reasoning.Type,
		BaseURL:    cfg.Reasoning.OpenAI.BaseURL,
		APIKeyEnv:  cfg.Reasoning.OpenAI.APIKeyEnv,
		Model:      cfg.Reasoning.OpenAI.Model,
		Timeout:    time.Duration(cfg.Reasoning.OpenAI.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Reasoning.OpenAI.MaxRetries,
	})
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize reasoning provider: %w", err)
	}

	eng := engine.New(store, embedder, provider, logger, cfg.Ask.TopK)
	return &Components{
		Store:    store,
		Embedder: embedder,
		Engine:   eng,
	}, nil
}

func printUsage() {
	fmt.Println(`sbomrag - Dependency inventory analysis with retrieval-augmented answers

Usage:
  sbomrag server [flags]                       Start the HTTP server
  sbomrag index [flags] <inventory.json>       Index a dependency inventory
  sbomrag ask --project <id> [flags] <question> Ask a question about a project
  sbomrag projects [flags]                     List indexed projects
  sbomrag version                              Show version
  sbomrag help                                 Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sbomrag/config.yaml)
  --debug            Enable debug logging

Index Flags:
  --config string    Config file path
  --server string    Server URL (empty = index directly into the configured store)

Ask Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --project string   Project id (required)
  --output string    Output format: text or json (default: text)

Projects Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  sbomrag server
  sbomrag index inventory.json
  sbomrag index --server http://localhost:8080 inventory.json
  sbomrag ask --project shop-backend "What should I do about critical vulnerabilities?"
  sbomrag ask --project shop-backend --output json "Which direct dependencies are risky?"
  sbomrag projects`)
}
