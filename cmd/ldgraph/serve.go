package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/ldgraph/api"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API:

  GET /ping
  GET /search?q=<text>     Full-text search over indexed types
  GET /resource?id=<uri>   A stored resource
  GET /metrics             Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			engine, err := a.openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			server := api.NewServer(api.Config{
				ListenAddr: a.cfg.API.Listen,
				Gatherer:   a.registry,
			}, a.store, engine, a.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Run() }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			select {
			case err := <-errCh:
				return err
			case <-sig:
				a.logger.Info("shutting down")
				return server.Shutdown()
			case <-cmd.Context().Done():
				return server.Shutdown()
			}
		},
	}
	cmd.Flags().StringP("listen", "l", "", "Address for the API server to listen on (default :8080)")
	return cmd
}
