// Package checker runs the status API contract checks against a base URL.
//
// Checks run one at a time in a fixed order. A failing check is recorded in
// the Report and never stops the run.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"statuscheck/config"
)

var errCanceled = errors.New("run canceled")

// Options are the expectations a Checker runs with.
type Options struct {
	BaseURL               string
	Greeting              string
	RequiredFields        []string
	ClientName            string
	PersistenceClientName string
	Origin                string
	APIKey                string
	// Checks selects checks by name. Empty selects all of them.
	Checks []string
}

// OptionsFromConfig maps the checker section of the configuration.
func OptionsFromConfig(cfg config.CheckerConfig) Options {
	return Options{
		BaseURL:               cfg.BaseURL,
		Greeting:              cfg.Greeting,
		RequiredFields:        slices.Clone(cfg.RequiredFields),
		ClientName:            cfg.ClientName,
		PersistenceClientName: cfg.PersistenceClientName,
		Origin:                cfg.Origin,
		APIKey:                cfg.APIKey,
		Checks:                slices.Clone(cfg.Checks),
	}
}

// Checker runs a selection of checks.
type Checker struct {
	client *Client
	opts   Options
	checks []Check
	logger *slog.Logger
}

// New validates opts and selects the checks to run.
func New(httpClient *http.Client, opts Options, logger *slog.Logger) (*Checker, error) {
	if err := config.ValidateBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}
	if len(opts.RequiredFields) == 0 {
		return nil, fmt.Errorf("at least one required field must be configured")
	}
	if opts.ClientName == "" || opts.PersistenceClientName == "" {
		return nil, fmt.Errorf("client names must not be empty")
	}

	checks, err := Select(opts.Checks)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	client := NewClient(httpClient, opts.BaseURL, logger)
	client.apiKey = opts.APIKey
	return &Checker{
		client: client,
		opts:   opts,
		checks: checks,
		logger: logger,
	}, nil
}

// Select returns the named checks in execution order. No names selects all.
func Select(names []string) ([]Check, error) {
	all := Checks()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []Check
	for _, c := range all {
		if wanted[c.Name] {
			selected = append(selected, c)
			delete(wanted, c.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		slices.Sort(unknown)
		return nil, fmt.Errorf("unknown checks %v (valid: %v)", unknown, Names())
	}
	return selected, nil
}

// Run executes the selected checks sequentially. Once ctx is done the
// remaining checks are recorded as canceled.
func (c *Checker) Run(ctx context.Context) *Report {
	report := &Report{
		BaseURL:   c.opts.BaseURL,
		StartedAt: time.Now(),
		Results:   make([]Result, 0, len(c.checks)),
	}

	for _, check := range c.checks {
		report.Results = append(report.Results, c.runOne(ctx, check))
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}

func (c *Checker) runOne(ctx context.Context, check Check) Result {
	if err := ctx.Err(); err != nil {
		return newResult(check.Name, "", "", fmt.Errorf("%w: %v", errCanceled, err), 0)
	}

	c.logger.Info("running check", "check", check.Name, "description", check.Description)
	start := time.Now()
	out, err := check.Run(ctx, c)
	res := newResult(check.Name, out.Detail, out.ID, err, time.Since(start))

	if res.Passed {
		c.logger.Info("check passed", "check", res.Name, "detail", res.Detail, "duration", res.Duration)
	} else {
		c.logger.Warn("check failed", "check", res.Name, "kind", res.Kind, "detail", res.Detail, "duration", res.Duration)
	}
	return res
}
