package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/wayline-labs/tripweaver/internal/config"
	"github.com/wayline-labs/tripweaver/internal/export"
	"github.com/wayline-labs/tripweaver/internal/logging"
	"github.com/wayline-labs/tripweaver/internal/mcptools"
	"github.com/wayline-labs/tripweaver/internal/producer"
	"github.com/wayline-labs/tripweaver/internal/reconcile"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Trip      string
	ConfigDir string
	Proposals string
	Format    string
	ServeMCP  bool
	Addr      string
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("tripweaver", flag.ContinueOnError)
	fs.StringVar(&flags.Trip, "trip", "", "path to the trip request file (YAML)")
	fs.StringVar(&flags.ConfigDir, "config", ".", "directory containing tripweaver.yml")
	fs.StringVar(&flags.Proposals, "proposals", "", "canned proposals file (JSON); skips the Gemini producers")
	fs.StringVar(&flags.Format, "format", "json", "output format: json or mermaid")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server instead of planning a single trip")
	fs.StringVar(&flags.Addr, "addr", "127.0.0.1:8321", "listen address for -serve-mcp")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, flags.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	producers, cleanup, err := buildProducers(ctx, flags, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := reconcile.New(cfg.EngineConfig(), producers, logger)
	defer engine.Close()

	if flags.ServeMCP {
		logger.Info("serving MCP", zap.String("addr", flags.Addr))
		return mcptools.RunMCPServer(ctx, mcptools.NewPlannerService(engine), flags.Addr)
	}

	if flags.Trip == "" {
		return fmt.Errorf("-trip is required (or use -serve-mcp)")
	}

	spec, err := config.LoadTrip(flags.Trip)
	if err != nil {
		return err
	}

	go func() {
		for ev := range engine.Progress() {
			fmt.Fprintln(os.Stderr, reconcile.FormatEvent(ev))
		}
	}()

	result, err := engine.Run(ctx, spec)
	if err != nil {
		return err
	}

	switch flags.Format {
	case "json":
		out, err := export.MarshalJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "mermaid":
		fmt.Print(export.GenerateMermaid(result.Itinerary))
	default:
		return fmt.Errorf("unknown format %q", flags.Format)
	}
	return nil
}

// buildProducers wires either the Gemini producers or canned fixtures when
// -proposals is given.
func buildProducers(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig, logger *zap.Logger) ([]producer.Producer, func(), error) {
	if flags.Proposals != "" {
		producers, err := loadFixtures(flags.Proposals)
		if err != nil {
			return nil, nil, err
		}
		return producers, func() {}, nil
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, nil, fmt.Errorf("no Gemini API key configured (set %s or use -proposals)", keyEnvName(cfg))
	}

	gemini, err := producer.NewGemini(ctx, apiKey, cfg.Model, float32(cfg.Temperature), logger)
	if err != nil {
		return nil, nil, err
	}

	producers := []producer.Producer{
		gemini.Producer(trip.CategoryLodging),
		gemini.Producer(trip.CategoryEvent),
		gemini.Producer(trip.CategoryRestaurant),
	}
	return producers, func() { gemini.Close() }, nil
}

func keyEnvName(cfg *config.ProjectConfig) string {
	if cfg.APIKeyEnv != "" {
		return cfg.APIKeyEnv
	}
	return "GEMINI_API_KEY"
}

// loadFixtures reads a JSON file mapping category to day to proposals.
func loadFixtures(path string) ([]producer.Producer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proposals file: %w", err)
	}

	var byCat map[trip.Category]map[int][]trip.RawProposal
	if err := json.Unmarshal(data, &byCat); err != nil {
		return nil, fmt.Errorf("parse proposals file %s: %w", path, err)
	}

	var producers []producer.Producer
	for _, cat := range trip.Categories {
		days, ok := byCat[cat]
		if !ok {
			continue
		}
		producers = append(producers, &producer.Fixture{Cat: cat, ByDay: days})
	}
	return producers, nil
}
