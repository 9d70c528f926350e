package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/config"
	"github.com/insightdelivered/bnp-ledger/internal/extractor"
	"github.com/insightdelivered/bnp-ledger/internal/ledger"
	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/report"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <statement.pdf>",
		Short: "Convert one statement into a worksheet of the output workbook",
		Example: `  bnp-ledger convert releve_mars.pdf
  bnp-ledger convert --budget 400 --ask-rules -o comptes_2024.xlsx releve_mars.pdf
  bnp-ledger convert --csv releve_mars.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if err := checkPDF(input); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, input)
			if err != nil {
				return err
			}
			defer log.Close()

			engine, err := newEngine(cfg, log, os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			summary, err := buildSummary(cmd.Context(), cfg, log, newExtractor(cfg, log), engine, input, cfg.BudgetAmount())
			if err != nil {
				return err
			}

			sheet := summary.Report()
			if cfg.CSV {
				out := csvPath(cfg.Output)
				if err := (&report.CSVWriter{IncludeHeader: true}).WriteToFile(out, sheet); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", out)
			} else {
				if err := (&report.ExcelWriter{}).WriteToFile(cfg.Output, sheet); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Output: %s (sheet %s)\n", cfg.Output, sheet.Name())
			}
			fmt.Fprint(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().Bool("csv", false, "write CSV instead of a workbook")
	return cmd
}

// buildSummary runs the pipeline on one statement and sets its budget.
func buildSummary(ctx context.Context, cfg config.Config, log *logging.Logger, ex extractor.Extractor,
	engine *rules.Engine, input string, budget *float64) (*ledger.Summary, error) {
	summary, err := ledger.New(input, ex, engine, ledger.Options{
		Format:         cfg.Format(),
		Strict:         cfg.Strict,
		IncludeSavings: cfg.IncludeSavings,
		Log:            log,
	})
	if err != nil {
		return nil, err
	}
	if err := summary.AddOperations(ctx); err != nil {
		return nil, err
	}
	if _, err := summary.AddMonthlyBudget(budget); err != nil {
		guard := logging.Guard{Log: log, Strict: cfg.Strict}
		if herr := guard.Handle(err, "budget not set"); herr != nil {
			return nil, herr
		}
	}
	return summary, nil
}
