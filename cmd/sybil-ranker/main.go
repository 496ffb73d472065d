package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/sybil-ranker/pkg/config"
	"github.com/ritzau/sybil-ranker/pkg/logging"
	"github.com/ritzau/sybil-ranker/pkg/output"
	"github.com/ritzau/sybil-ranker/pkg/pipeline"
	"github.com/ritzau/sybil-ranker/pkg/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Parse command-line flags
	flags := config.NewFlagSet("sybil-ranker")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	// Logs go to stderr, reports to stdout
	level := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.LogJSON {
		logging.SetJSONOutput(os.Stderr, level)
	} else {
		logging.SetOutput(os.Stderr, level)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *web.Server
	var sink pipeline.Sink
	if cfg.WebMode {
		server = web.NewServer(cfg.Top)
		sink = server
	}
	runner := pipeline.NewRunner(cfg, sink)

	report := func(result *pipeline.Result) {
		if cfg.Inspect && result.Inspection != nil {
			output.PrintInspection(os.Stdout, *result.Inspection)
		}
		if cfg.Report {
			output.PrintRunReport(os.Stdout, result, cfg.Top)
		}
	}

	if !cfg.WebMode && !cfg.Watch {
		// One-shot CLI mode
		result, err := runner.Run(ctx, "initial run")
		if err != nil {
			return err
		}
		report(result)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if server != nil {
		// Start web server first so clients can follow the initial run
		g.Go(func() error {
			return server.Start(ctx, cfg.Port)
		})
	}

	g.Go(func() error {
		result, err := runner.Run(ctx, "initial run")
		if err != nil && !cfg.Watch {
			// Nothing to serve without scores
			return err
		}
		if err == nil {
			report(result)
		}

		if cfg.Watch {
			err := runner.Watch(ctx, report)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
