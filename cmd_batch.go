package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/plan"
	"github.com/insightdelivered/bnp-ledger/internal/report"
)

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <folder|manifest.yaml>",
		Short: "Convert every statement of a folder or manifest into one workbook",
		Example: `  bnp-ledger batch statements/
  bnp-ledger batch 2024.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.Resolve(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if p.Output != "" {
				cfg.Output = p.Output
			}
			log, err := newLogger(cfg, args[0])
			if err != nil {
				return err
			}
			defer log.Close()

			engine, err := newEngine(cfg, log, os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ex := newExtractor(cfg, log)

			// Interactive prompts and the bar would interleave.
			var bar *progressbar.ProgressBar
			if !cfg.AskRules {
				bar = progressbar.NewOptions(len(p.Statements),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("[cyan][bold]Converting statements...[reset]"),
					progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
				)
			}

			var sheets []report.Sheet
			failed := 0
			for _, st := range p.Statements {
				stCfg := cfg
				stCfg.Mode = p.ModeOf(st, cfg.Mode)
				if _, ok := models.ParseFormat(stCfg.Mode); !ok {
					return fmt.Errorf("%s: unknown mode %q", st.Path, stCfg.Mode)
				}

				summary, err := buildSummary(cmd.Context(), stCfg, log, ex, engine, st.Path, p.BudgetOf(st, cfg.BudgetAmount()))
				if bar != nil {
					_ = bar.Add(1)
				}
				if err != nil {
					if cfg.Strict {
						return fmt.Errorf("%s: %w", st.Path, err)
					}
					log.Error("statement skipped", "path", st.Path, "err", err)
					failed++
					continue
				}
				if summary.Len() == 0 {
					log.Warn("no operation found", "path", st.Path)
				}
				sheets = append(sheets, summary.Report())
			}
			if len(sheets) == 0 {
				return fmt.Errorf("no statement converted")
			}

			if err := (&report.ExcelWriter{}).WriteToFile(cfg.Output, sheets...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Output: %s (%d sheets, %d skipped)\n", cfg.Output, len(sheets), failed)
			return nil
		},
	}
}
