package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickshell/pkg/server"
	"github.com/matzehuels/brickshell/pkg/store"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		storeURL string
		flags    cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the solver over HTTP",
		Long: `Serve the solver over HTTP.

Routes:
  GET  /healthz
  GET  /v1/dimensions?max_bricks=N
  POST /v1/solve?format=csv|json     (body: openings JSON array)
  GET  /v1/runs, /v1/runs/{id}       (with --store)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(&cfg.Cache)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.URL = storeURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := server.Options{
				Base:         cfg.PipelineOptions(),
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				MaxBricks:    cfg.Server.MaxBricks,
				Logger:       c.Logger,
			}
			if cfg.Store.URL != "" {
				st, err := store.Open(ctx, cfg.Store.URL)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				opts.Store = st
			}

			printInfo("Serving on %s", cfg.Server.Addr)
			return server.New(runner, opts).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&storeURL, "store", "", "persist runs to sqlite:PATH or mongodb://HOST/DB")
	flags.register(cmd)

	return cmd
}
