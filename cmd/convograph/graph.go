package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/hurttlocker/convograph/internal/graph"
)

func runGraph(ctx context.Context, args []string) error {
	sub := "stats"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
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

	switch sub {
	case "stats":
		storeStats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"store":    storeStats,
			"graph":    g.Metadata(),
			"clusters": len(g.FindClusters()),
		})
	case "export":
		return printJSON(g.Export())
	case "path":
		fs := flag.NewFlagSet("graph path", flag.ContinueOnError)
		depth := fs.Int("depth", graph.DefaultMaxPathDepth, "Maximum path length in edges")
		if len(args) < 2 {
			return fmt.Errorf("usage: convograph graph path <from> <to> [--depth N]")
		}
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		from, to := graph.NormalizeID(args[0]), graph.NormalizeID(args[1])
		path := g.FindPath(from, to, *depth)
		return printJSON(graph.PathResponse{From: from, To: to, Depth: *depth, Found: len(path) > 0, Path: orEmpty(path)})
	case "clusters":
		clusters := g.FindClusters()
		if clusters == nil {
			clusters = [][]string{}
		}
		return printJSON(graph.ClustersResponse{Clusters: clusters, Count: len(clusters)})
	case "rank":
		fs := flag.NewFlagSet("graph rank", flag.ContinueOnError)
		limit := fs.Int("limit", graph.DefaultRankingLimit, "Number of entries per ranking")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return printJSON(map[string]any{
			"strongest_connections": orEmpty(g.StrongestConnections(*limit)),
			"most_connected_nodes":  orEmpty(g.MostConnectedNodes(*limit)),
		})
	case "summary":
		text, err := newLLMClient(cfg).SummarizeGraph(ctx, g.Nodes(), g.Edges())
		if err != nil {
			return fmt.Errorf("summarizing graph: %w", err)
		}
		fmt.Fprintln(stdout, text)
		return nil
	default:
		return fmt.Errorf("unknown graph command: %s", sub)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
