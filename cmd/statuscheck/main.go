// Package main is the entry point for the status API contract checker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"statuscheck/config"
	"statuscheck/internal/checker"
	"statuscheck/internal/httpclient"
	"statuscheck/internal/logging"
	"statuscheck/internal/report"
	"statuscheck/internal/scheduler"
	"statuscheck/internal/version"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	configPath string
	baseURL    string
	format     string
	checks     string
	schedule   string
	version    bool
	list       bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("statuscheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.baseURL, "base-url", "", "API root to check, e.g. https://example.com/api")
	fs.StringVar(&f.format, "format", "", "Report format: text or json")
	fs.StringVar(&f.checks, "checks", "", "Comma separated checks to run (default: all)")
	fs.StringVar(&f.schedule, "schedule", "", "Cron expression; rerun the checks until interrupted")
	fs.BoolVar(&f.version, "version", false, "Print version information")
	fs.BoolVar(&f.list, "list", false, "List available checks and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// applyFlags overrides configuration with flags that were set.
func applyFlags(cfg *config.Config, f *flags) {
	if f.baseURL != "" {
		cfg.Checker.BaseURL = f.baseURL
	}
	if f.format != "" {
		cfg.Checker.Format = f.format
	}
	if f.checks != "" {
		cfg.Checker.Checks = config.SplitList(f.checks)
	}
	if f.schedule != "" {
		cfg.Checker.Schedule = f.schedule
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if f.version {
		fmt.Fprintln(stdout, version.Info())
		return exitOK
	}
	if f.list {
		for _, c := range checker.Checks() {
			fmt.Fprintf(stdout, "%-20s %s\n", c.Name, c.Description)
		}
		return exitOK
	}

	cfg, err := config.LoadUnvalidated(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitUsage
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitUsage
	}

	handler, err := logging.NewHandler(stderr, logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	if err != nil {
		fmt.Fprintf(stderr, "invalid logging configuration: %v\n", err)
		return exitUsage
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if cfg.Checker.Schedule != "" {
		if _, err := scheduler.Parse(cfg.Checker.Schedule); err != nil {
			logger.Error("invalid schedule", "error", err)
			return exitUsage
		}
	}

	clientCfg := httpclient.FromConfig(cfg.HTTP)
	chk, err := checker.New(httpclient.NewHTTPClient(&clientCfg), checker.OptionsFromConfig(cfg.Checker), logger)
	if err != nil {
		logger.Error("failed to create checker", "error", err)
		return exitUsage
	}

	logger.Info("starting statuscheck",
		"version", version.Version,
		"base_url", cfg.Checker.BaseURL,
	)

	runOnce := func(ctx context.Context) int {
		r := chk.Run(ctx)
		if err := report.Write(stdout, r, cfg.Checker.Format); err != nil {
			logger.Error("failed to write report", "error", err)
			return exitFailed
		}
		return r.ExitCode()
	}

	if cfg.Checker.Schedule == "" {
		return runOnce(ctx)
	}
	return runScheduled(ctx, cfg.Checker.Schedule, runOnce, logger)
}

// runScheduled runs once immediately and then on expr until ctx is done.
// The exit code is the one of the last completed run.
func runScheduled(ctx context.Context, expr string, runOnce func(context.Context) int, logger *slog.Logger) int {
	var last atomic.Int32
	job := func(ctx context.Context) {
		last.Store(int32(runOnce(ctx)))
	}

	s, err := scheduler.New(expr, job)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		return exitUsage
	}

	s.RunNow(ctx, job)
	if ctx.Err() != nil {
		return int(last.Load())
	}

	s.Start(ctx)
	logger.Info("waiting for next run", "cron", expr, "next_run", s.NextRunAt())
	<-ctx.Done()
	logger.Info("stopping scheduler")
	s.Stop()
	return int(last.Load())
}
