package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/config"
	"github.com/insightdelivered/bnp-ledger/internal/extractor"
	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}

// newLogger opens the run logger; a log file is named after input.
func newLogger(cfg config.Config, input string) (*logging.Logger, error) {
	return logging.New(cfg.LogOptions(input, time.Now()))
}

// newExtractor stacks the configured extractor, its timing and the cache.
func newExtractor(cfg config.Config, log *logging.Logger) extractor.Extractor {
	var ex extractor.Extractor
	switch cfg.Extractor.Kind {
	case config.ExtractorRemote:
		ex = &extractor.RemoteExtractor{
			BaseURL:      cfg.Extractor.BaseURL,
			APIKey:       cfg.Extractor.APIKey,
			PollInterval: cfg.Extractor.PollInterval,
			Timeout:      cfg.Extractor.Timeout,
			Log:          log,
		}
	default:
		ex = &extractor.PDFExtractor{Log: log}
	}
	ex = extractor.Timed(cfg.Extractor.Kind, ex)
	if cfg.Cache.Enabled {
		ex = &extractor.Cache{Next: ex, Dir: cfg.Cache.Dir, Log: log}
	}
	return ex
}

// newEngine loads the rules file. A missing or malformed file goes through
// the error regime; learned rules are appended to it.
func newEngine(cfg config.Config, log *logging.Logger, in io.Reader, out io.Writer) (*rules.Engine, error) {
	opts := []rules.Option{rules.WithLogger(log)}
	if cfg.AskRules {
		opts = append(opts, rules.WithLearner(rules.NewPrompter(in, out)))
	}
	engine, err := rules.Load(rules.FileStore{Path: cfg.RulesFile}, opts...)
	if err != nil {
		guard := logging.Guard{Log: log, Strict: cfg.Strict}
		if herr := guard.Handle(err, "rules not fully loaded", "path", cfg.RulesFile); herr != nil {
			return nil, herr
		}
	}
	return engine, nil
}

// csvPath swaps the workbook extension for .csv.
func csvPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".csv"
}

func checkPDF(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input file not found: %s", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}
	return nil
}
