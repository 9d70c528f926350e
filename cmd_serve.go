package main

import (
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bnp-ledger/internal/api"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, "serve")
			if err != nil {
				return err
			}
			defer log.Close()

			// Uploads are named by report id, so caching them only fills the disk.
			cfg.Cache.Enabled = false
			h := api.NewHandler(api.Options{
				Extractor:      newExtractor(cfg, log),
				Rules:          rules.FileStore{Path: cfg.RulesFile},
				Format:         cfg.Format(),
				Strict:         cfg.Strict,
				IncludeSavings: cfg.IncludeSavings,
				Log:            log,
			})
			app := api.NewApp(h)

			go func() {
				<-cmd.Context().Done()
				log.Info("shutting down")
				_ = app.Shutdown()
			}()

			log.Info("listening", "addr", cfg.Server.Addr)
			return app.Listen(cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}
