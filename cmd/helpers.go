package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/app"
	"github.com/mediguide-lk/mediguide/internal/config"
	"github.com/mediguide-lk/mediguide/internal/report"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatHTML     = "html"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mediguide init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openApp loads the config and builds every service. Callers must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !verbose {
		log.SetOutput(io.Discard)
	}
	return app.Build(ctx, cfg)
}

// language resolves --lang against the configured default.
func language(a *app.App) (advisory.Language, error) {
	if langFlag == "" {
		return a.Language, nil
	}
	lang, ok := advisory.ParseLanguage(langFlag)
	if !ok {
		return "", fmt.Errorf("unsupported language %q (use English or Sinhala)", langFlag)
	}
	return lang, nil
}

func checkFormat() error {
	switch outputFormat {
	case formatMarkdown, formatJSON, formatHTML:
		return nil
	}
	return fmt.Errorf("unknown format %q (use markdown, json or html)", outputFormat)
}

// runAdvisory submits one request built by build and prints the answer.
func runAdvisory(ctx context.Context, build func(lang advisory.Language) advisory.Request) error {
	return runAdvisories(ctx, func(lang advisory.Language) []advisory.Request {
		return []advisory.Request{build(lang)}
	})
}

// runAdvisories submits requests one after another, printing each answer.
// It stops at the first failure.
func runAdvisories(ctx context.Context, build func(lang advisory.Language) []advisory.Request) error {
	if err := checkFormat(); err != nil {
		return err
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	lang, err := language(a)
	if err != nil {
		return err
	}
	for _, req := range build(lang) {
		res, err := a.Orchestrator.Submit(ctx, req)
		if err != nil {
			return advisoryError(err)
		}
		if err := printResults(os.Stdout, outputFormat, res); err != nil {
			return err
		}
	}
	return nil
}

// advisoryError keeps gateway causes out of normal output.
func advisoryError(err error) error {
	if verbose {
		return err
	}
	return fmt.Errorf("%s", advisory.UserMessage(err))
}

// printResults writes results in the chosen format.
func printResults(w io.Writer, format string, results ...*advisory.Result) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	case formatHTML:
		var page string
		var err error
		if len(results) == 1 {
			page, err = report.HTML(results[0])
		} else {
			page, err = report.HTMLAll("MediGuide answers", results)
		}
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		_, err := io.WriteString(w, report.MarkdownAll(results))
		return err
	}
}
