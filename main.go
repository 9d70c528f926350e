package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/config"
)

const version = "1.0.0"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "bnp-ledger",
		Short: "BNP Paribas statement PDF to categorized Excel ledger",
		Long: `bnp-ledger converts monthly BNP Paribas account statements into
categorized ledgers: one worksheet per month with totals per category,
a budget and the saving rate.

Categories come from a rules file of "label:category" lines; unknown
operations can be labelled interactively with --ask-rules.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	d := config.Defaults()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./bnp-ledger.yaml or $HOME/.config/bnp-ledger/bnp-ledger.yaml)")
	pf.String("mode", d.Mode, "page format requested from the extractor: text or markdown")
	pf.StringP("output", "o", d.Output, "output workbook")
	pf.Float64("budget", d.Budget, "monthly budget in euros (0 computes it from the statement period)")
	pf.String("rules", "", "rules file (default: <account>_rules.txt)")
	pf.String("account", d.AccountID, "account id used to name the default rules file")
	pf.Bool("ask-rules", d.AskRules, "ask for the category of operations no rule matches")
	pf.Bool("strict", d.Strict, "stop at the first parsing error instead of skipping it")
	pf.IntP("verbose", "v", d.Verbosity, "console verbosity: 0 silent, 1 errors, 2 warnings, 3 info, 4 debug")
	pf.Bool("log", d.Log.Enabled, "write a log file for the run")
	pf.String("log-dir", d.Log.Dir, "log file directory")
	pf.Bool("log-format", d.Log.Formatting, "styled log file with timestamps instead of logfmt")
	pf.Bool("include-savings", d.IncludeSavings, "count Epargne debits in the debit total")
	pf.String("extractor", d.Extractor.Kind, "text extractor: local or remote")
	pf.Bool("cache", d.Cache.Enabled, "cache extraction results")
	pf.String("cache-dir", d.Cache.Dir, "cache directory (default: next to each statement)")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(serveCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
