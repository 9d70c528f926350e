package main

import (
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/normalize"
	"github.com/insightdelivered/bnp-ledger/internal/parser"
)

func inspectCmd() *cobra.Command {
	var showPages, noColor bool
	cmd := &cobra.Command{
		Use:   "inspect <statement.pdf>",
		Short: "Print the extracted pages and raw rows of a statement",
		Long: `inspect runs extraction and layout parsing only, then prints what the
parser saw. Use it when a statement yields no or wrong operations.`,
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

			pages, err := newExtractor(cfg, log).Extract(cmd.Context(), input, cfg.Format())
			if err != nil {
				return err
			}

			printer := pp.New()
			printer.SetOutput(cmd.OutOrStdout())
			printer.SetColoringEnabled(!noColor)

			if showPages {
				for _, page := range pages {
					fmt.Fprintf(cmd.OutOrStdout(), "===== page %d =====\n%s\n", page.Number, page.Text)
				}
			}

			p, err := parser.New(cfg.Format(), parser.Options{Guard: logging.Guard{Log: log, Strict: cfg.Strict}})
			if err != nil {
				return err
			}
			res, err := p.Parse(pages)
			if err != nil {
				return err
			}
			printer.Println(res.Period)
			printer.Println(normalize.Reconcile(res))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPages, "pages", false, "also print the extracted page text")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
