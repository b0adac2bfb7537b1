package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/hurttlocker/convograph/internal/store"
)

func runMemory(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: convograph memory put|get|search|delete|list ...")
	}

	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sub, rest := args[0], args[1:]
	switch sub {
	case "put":
		return memoryPut(ctx, s, rest)
	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("usage: convograph memory get <key>")
		}
		m, err := s.GetMemory(ctx, rest[0])
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("memory %q not found", rest[0])
		}
		return printJSON(m)
	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("usage: convograph memory search <query>")
		}
		found, err := s.SearchMemories(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return printJSON(nonNilMemories(found))
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: convograph memory delete <key>")
		}
		ok, err := s.DeleteMemory(ctx, rest[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(stdout, "Memory '%s' not found.\n", rest[0])
			return nil
		}
		fmt.Fprintf(stdout, "Memory '%s' deleted.\n", rest[0])
		return nil
	case "list":
		all, err := s.ListMemories(ctx)
		if err != nil {
			return err
		}
		return printJSON(nonNilMemories(all))
	default:
		return fmt.Errorf("unknown memory command: %s", sub)
	}
}

func memoryPut(ctx context.Context, s store.Store, args []string) error {
	fs := flag.NewFlagSet("memory put", flag.ContinueOnError)
	category := fs.String("category", store.DefaultCategory, "Memory category")
	confidence := fs.Float64("confidence", store.DefaultConfidence, "Confidence between 0 and 1")

	// key and value come first; flags may follow them
	if len(args) < 2 {
		return fmt.Errorf("usage: convograph memory put <key> <value> [--category C] [--confidence F]")
	}
	key, raw := args[0], args[1]
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *confidence < 0 || *confidence > 1 {
		return fmt.Errorf("--confidence must be between 0 and 1")
	}

	m, err := s.PutMemory(ctx, key, parseMemoryValue(raw), *category, *confidence)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Memory stored: %s [%s]\n", m.Key, m.Category)
	return nil
}

// parseMemoryValue keeps valid JSON as structured data and treats anything
// else as a plain string.
func parseMemoryValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return raw
}

func nonNilMemories(m []*store.Memory) []*store.Memory {
	if m == nil {
		return []*store.Memory{}
	}
	return m
}
