package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hurttlocker/convograph/internal/analyzer"
	"github.com/hurttlocker/convograph/internal/config"
	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/extract"
	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/ingest"
	"github.com/hurttlocker/convograph/internal/logger"
	"github.com/hurttlocker/convograph/internal/store"
)

type analyzeOutput struct {
	Conversations int               `json:"conversations"`
	Results       []analyzer.Result `json:"results"`
	Graph         graph.Metadata    `json:"graph"`
	Saved         bool              `json:"saved"`
}

func runAnalyze(ctx context.Context, args []string) error {
	var (
		paths   []string
		asJSON  bool
		save    bool
		fresh   bool
		speaker bool
		workers = ingest.DefaultConcurrency
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--json":
			asJSON = true
		case arg == "--save":
			save = true
		case arg == "--fresh":
			fresh = true
		case arg == "--speaker-nodes":
			speaker = true
		case arg == "--workers" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return fmt.Errorf("--workers must be a positive integer")
			}
			workers = n
			i++
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("usage: convograph analyze <file>... [--json] [--save] [--fresh] [--speaker-nodes] [--workers N]")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	g := graph.NewStore()
	if !fresh {
		if g, err = loadGraph(ctx, s); err != nil {
			return err
		}
	}

	engine := ingest.NewEngine(ingest.WithConcurrency(workers), ingest.WithLogger(logger.Get()))
	convs, err := engine.ParseFiles(ctx, paths)
	if err != nil {
		return err
	}

	var extra []analyzer.Option
	if speaker {
		extra = append(extra, analyzer.WithSpeakerNode())
	}
	results := newAnalyzer(g, cfg, extra...).AnalyzeAll(convs)
	return report(ctx, s, g, results, len(convs), asJSON, save)
}

func runSample(ctx context.Context, args []string) error {
	count := conversation.SampleCount()
	var asJSON, save bool
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--count" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return fmt.Errorf("--count must be a positive integer")
			}
			count = n
			i++
		case arg == "--json":
			asJSON = true
		case arg == "--save":
			save = true
		default:
			return fmt.Errorf("usage: convograph sample [--count N] [--json] [--save]")
		}
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	g := graph.NewStore()
	convs := conversation.NewSampleGenerator().Generate(count)
	results := newAnalyzer(g, cfg).AnalyzeAll(convs)
	return report(ctx, s, g, results, len(convs), asJSON, save)
}

func newAnalyzer(g *graph.Store, cfg config.ResolvedConfig, extra ...analyzer.Option) *analyzer.Analyzer {
	var opts []extract.Option
	if len(cfg.Technologies) > 0 {
		opts = append(opts, extract.WithExtraTechnologies(cfg.Technologies...))
	}
	return analyzer.New(g, append([]analyzer.Option{
		analyzer.WithExtractor(extract.NewExtractor(opts...)),
		analyzer.WithLogger(logger.Get()),
	}, extra...)...)
}

// loadGraph returns a graph holding the saved snapshot, or an empty one.
func loadGraph(ctx context.Context, s store.Store) (*graph.Store, error) {
	snap, err := s.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	g := graph.NewStore()
	g.Import(snap.Nodes, snap.Edges)
	return g, nil
}

func report(ctx context.Context, s store.Store, g *graph.Store, results []analyzer.Result, convs int, asJSON, save bool) error {
	if save {
		if err := s.SaveGraph(ctx, g.Export()); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
		logger.Get().Info("graph saved", zap.Int("nodes", g.Metadata().NodeCount), zap.Int("edges", g.Metadata().EdgeCount))
	}

	if asJSON {
		return printJSON(analyzeOutput{Conversations: convs, Results: results, Graph: g.Metadata(), Saved: save})
	}

	var entities, rels int
	for _, r := range results {
		entities += len(r.Entities)
		rels += len(r.Relationships)
	}
	fmt.Fprintf(stdout, "Analyzed %d conversations: %d entities, %d relationships\n", convs, entities, rels)
	for _, r := range results {
		if len(r.Insights) == 0 {
			continue
		}
		fmt.Fprintf(stdout, "\n%s\n", r.ConversationID)
		for _, in := range r.Insights {
			fmt.Fprintf(stdout, "  - %s\n", in)
		}
	}
	meta := g.Metadata()
	fmt.Fprintf(stdout, "\nGraph: %d nodes, %d edges\n", meta.NodeCount, meta.EdgeCount)
	if save {
		fmt.Fprintln(stdout, "Graph saved.")
	}
	return nil
}
