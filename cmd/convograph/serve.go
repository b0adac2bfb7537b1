package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/graphsync"
	"github.com/hurttlocker/convograph/internal/logger"
	"github.com/hurttlocker/convograph/internal/mcp"
	"github.com/hurttlocker/convograph/internal/metrics"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "Listen address (default from config, :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("usage: convograph serve [--addr :8080]")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := loadGraph(ctx, s)
	if err != nil {
		return err
	}
	listen := cfg.HTTPAddr.Value
	if strings.TrimSpace(*addr) != "" {
		listen = *addr
	}

	m := metrics.NewCollector("")
	meta := g.Metadata()
	m.SetGraphSize(meta.NodeCount, meta.EdgeCount)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Get()
	log.Info("serving graph API",
		zap.String("addr", listen),
		zap.Int("nodes", meta.NodeCount),
		zap.Int("edges", meta.EdgeCount),
	)
	fmt.Fprintf(stdout, "Graph API listening on %s (%d nodes, %d edges)\n", listen, meta.NodeCount, meta.EdgeCount)

	return graph.Serve(ctx, graph.ServerConfig{
		Store:   g,
		Lock:    &sync.RWMutex{},
		Addr:    listen,
		Metrics: m,
		Logger:  log,
	})
}

func runMCP(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: convograph mcp")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	g, err := loadGraph(ctx, s)
	if err != nil {
		return err
	}

	logger.Get().Info("starting MCP server on stdio", zap.String("db", cfg.DBPath.Value))
	srv := mcp.NewServer(mcp.ServerConfig{
		Store:    s,
		Analyzer: newAnalyzer(g, cfg),
		LLM:      newLLMClient(cfg),
		Version:  version,
	})
	return mcp.ServeStdio(srv)
}

func runSyncNeo4j(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync-neo4j", flag.ContinueOnError)
	replace := fs.Bool("replace", false, "Delete existing :Entity nodes before writing")
	batch := fs.Int("batch", graphsync.DefaultBatchSize, "Rows per UNWIND statement")
	database := fs.String("database", "", "Target database (default: server default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("usage: convograph sync-neo4j [--replace] [--batch N] [--database name]")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if !cfg.Neo4jURI.Set() {
		return fmt.Errorf("neo4j URI not configured: set NEO4J_URI or neo4j.uri in %s", cfg.ConfigPath)
	}

	g, err := loadGraph(ctx, s)
	if err != nil {
		return err
	}
	snap := g.Export()
	if len(snap.Nodes) == 0 {
		fmt.Fprintln(stdout, "No saved graph. Run analyze --save first.")
		return nil
	}

	exec, err := graphsync.Connect(ctx, cfg.Neo4jURI.Value, cfg.Neo4jUser.Value, cfg.Neo4jPassword.Value, *database)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)

	res, err := graphsync.New(exec).Sync(ctx, snap, graphsync.Options{Replace: *replace, BatchSize: *batch})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Synced %d nodes and %d edges to %s in %s (%d statements)\n",
		res.Nodes, res.Edges, cfg.Neo4jURI.Value, res.Elapsed.Round(time.Millisecond), res.Statements)
	return nil
}
