package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"retention-analyzer/agents/retention"
	"retention-analyzer/internal/models"
	"retention-analyzer/shared/config"
	"retention-analyzer/shared/credentials"
	"retention-analyzer/shared/monitoring"
	"retention-analyzer/shared/scheduler"
	"retention-analyzer/shared/storage"

	"github.com/prometheus/client_golang/prometheus"
)

const usage = `Usage:
  retention analyze [--json] <youtube-url>
  retention keys set <youtube|analysis> <value>
  retention keys status
  retention keys clear [--yes]
  retention watch [--once]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open %s credential store: %v", cfg.Storage.Backend, err)
	}
	defer kv.Close()

	keys := credentials.NewStore(kv, cfg.Storage.Prefix)
	if err := retention.SeedCredentials(ctx, keys, cfg); err != nil {
		log.Fatalf("Failed to seed credentials: %v", err)
	}

	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, cfg, keys, os.Args[2:])
	case "keys":
		err = runKeys(ctx, keys, os.Args[2:], os.Stdin)
	case "watch":
		err = runWatch(ctx, cfg, keys, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingCredential):
			fmt.Fprintln(os.Stderr, "YouTube API key is not set. Run: retention keys set youtube <key>")
		case errors.Is(err, models.ErrInvalidURL):
			fmt.Fprintln(os.Stderr, "Please enter a valid YouTube URL.")
		}
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func runAnalyze(ctx context.Context, cfg *config.Config, keys *credentials.Store, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("analyze takes exactly one URL")
	}

	pipeline := retention.NewPipelineFromConfig(cfg, keys, monitoring.NewMonitor(), nil)
	res, err := pipeline.Run(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		return retention.RenderJSON(os.Stdout, res)
	}
	return retention.RenderText(os.Stdout, res, time.Now())
}

func runKeys(ctx context.Context, keys *credentials.Store, args []string, stdin io.Reader) error {
	if len(args) == 0 {
		return fmt.Errorf("keys needs a subcommand: set, status or clear")
	}

	switch args[0] {
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: keys set <youtube|analysis> <value>")
		}
		kind, err := credentials.ParseKind(args[1])
		if err != nil {
			return err
		}
		if err := keys.Save(ctx, kind, strings.TrimSpace(args[2])); err != nil {
			return fmt.Errorf("failed to save %s key: %w", kind, err)
		}
		fmt.Printf("✅ %s key saved\n", kind)
		return nil

	case "status":
		for _, status := range keys.Status(ctx) {
			state := "not set"
			if status.Present {
				state = "set"
			}
			requirement := "optional"
			if status.Required {
				requirement = "required"
			}
			fmt.Printf("%-10s %-8s (%s)\n", status.Kind, state, requirement)
		}
		return nil

	case "clear":
		fs := flag.NewFlagSet("keys clear", flag.ExitOnError)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		fs.Parse(args[1:])

		if !*yes && !confirm(stdin, "Delete all stored API keys? [y/N] ") {
			fmt.Println("Cancelled")
			return nil
		}
		if err := keys.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear keys: %w", err)
		}
		fmt.Println("✅ All API keys deleted")
		return nil
	}

	return fmt.Errorf("unknown keys subcommand %q", args[0])
}

func confirm(stdin io.Reader, prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runWatch(ctx context.Context, cfg *config.Config, keys *credentials.Store, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	once := fs.Bool("once", false, "run a single pass and exit")
	fs.Parse(args)

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)
	monitor := monitoring.NewMonitor()

	pipeline := retention.NewPipelineFromConfig(cfg, keys, nil, metrics)
	agent := retention.NewWatchAgent(cfg, pipeline)
	s := scheduler.New(cfg, agent, monitor, registry)

	if *once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize agent: %w", err)
		}
		return s.RunOnce(ctx)
	}

	fmt.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	return nil
}
