package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/config"
	"github.com/hurttlocker/convograph/internal/logger"
	"github.com/hurttlocker/convograph/internal/store"
)

const version = "0.1.0-dev"

// Global flags, accepted before or after the subcommand.
var (
	globalDBPath     string
	globalConfigPath string
	globalEnvFile    string
	globalModel      string
	globalLogEnv     string
	globalVerbose    bool
)

// stdout receives user-facing output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

func main() {
	args := parseGlobalFlags(os.Args[1:])
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	err := run(context.Background(), args)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	switch args[0] {
	case "analyze":
		return runAnalyze(ctx, args[1:])
	case "sample":
		return runSample(ctx, args[1:])
	case "ask":
		return runAsk(ctx, args[1:])
	case "memory":
		return runMemory(ctx, args[1:])
	case "graph":
		return runGraph(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "mcp":
		return runMCP(ctx, args[1:])
	case "sync-neo4j":
		return runSyncNeo4j(ctx, args[1:])
	case "config":
		return runConfig(args[1:])
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "convograph %s\n", version)
		return nil
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// parseGlobalFlags strips global flags from args and records them.
func parseGlobalFlags(args []string) []string {
	targets := map[string]*string{
		"--db":       &globalDBPath,
		"--config":   &globalConfigPath,
		"--env-file": &globalEnvFile,
		"--model":    &globalModel,
		"--log":      &globalLogEnv,
	}

	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--verbose" {
			globalVerbose = true
			continue
		}
		if name, val, ok := strings.Cut(arg, "="); ok {
			if dst, known := targets[name]; known {
				*dst = val
				continue
			}
		}
		if dst, known := targets[arg]; known && i+1 < len(args) {
			*dst = args[i+1]
			i++
			continue
		}
		out = append(out, arg)
	}
	return out
}

func resolveConfig() (config.ResolvedConfig, error) {
	logEnv := globalLogEnv
	if globalVerbose && logEnv == "" {
		logEnv = "development"
	}
	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: globalConfigPath,
		EnvFile:    globalEnvFile,
		CLIDBPath:  globalDBPath,
		CLIModel:   globalModel,
		CLILogEnv:  logEnv,
	})
	if err != nil {
		return cfg, fmt.Errorf("resolving config: %w", err)
	}
	if err := logger.Init(cfg.LogEnv.Value); err != nil {
		return cfg, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}

// openStore resolves config and opens the database it names.
func openStore() (store.Store, config.ResolvedConfig, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, cfg, err
	}
	s, err := store.NewStore(store.StoreConfig{DBPath: cfg.DBPath.Value})
	if err != nil {
		return nil, cfg, fmt.Errorf("opening store: %w", err)
	}
	logger.Get().Debug("store opened", zap.String("db", cfg.DBPath.Value))
	return s, cfg, nil
}

func runConfig(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: convograph config")
	}
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	return printJSON(cfg.Redacted())
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(stdout, string(b))
	return nil
}

func printUsage() {
	fmt.Fprint(stdout, `convograph - conversational knowledge graph builder

Usage:
  convograph [global flags] <command> [arguments]

Commands:
  analyze <file>... [--json] [--save] [--fresh] [--speaker-nodes]
                             Parse transcripts and merge them into the graph
  sample [--count N] [--save] [--json]
                             Analyze built-in sample conversations
  ask <question> [--limit N] Answer a question from the saved graph
  graph [stats|export|path <from> <to>|clusters|rank]
                             Inspect the saved graph
  memory put <key> <value> [--category C] [--confidence F]
  memory get|delete <key>
  memory search <query>
  memory list                Manage key/value memories
  serve [--addr :8080]       Serve the graph HTTP API and /metrics
  mcp                        Run the MCP server over stdio
  sync-neo4j [--replace] [--batch N]
                             Push the saved graph to Neo4j
  config                     Show the resolved configuration
  version                    Show version

Global flags:
  --db <path>        Database path (default ~/.convograph/convograph.db)
  --config <path>    Config file (default ~/.convograph/config.yaml)
  --env-file <path>  Dotenv file (default .env)
  --model <name>     LLM model
  --log <env>        Log environment: development or production
  --verbose          Development logging
`)
}
