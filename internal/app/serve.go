package app

import (
	"github.com/spf13/cobra"

	"github.com/agbru/canonsim/internal/config"
	"github.com/agbru/canonsim/internal/server"
)

func (a *Application) newServeCommand() *cobra.Command {
	cfg := server.DefaultConfig()
	logLevel := config.DefaultLogLevel
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP",
		Long: `serve exposes POST /simulate, GET /healthz and GET /metrics (Prometheus).
The request body of /simulate is {"particles", "total_energy", "levels",
"workers", "seed"}; levels 0 means unbounded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.setupOutput(config.AppConfig{NoColor: true, LogLevel: logLevel})
			return server.New(cfg, a.logger).ListenAndServe(cmd.Context())
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "time limit for one simulation")
	fs.IntVar(&cfg.Security.MaxParticles, "max-particles", cfg.Security.MaxParticles, "largest accepted particle count")
	fs.IntVar(&cfg.Security.MaxTotalEnergy, "max-energy", cfg.Security.MaxTotalEnergy, "largest accepted total energy")
	fs.IntVar(&cfg.Security.MaxWorkers, "max-workers", cfg.Security.MaxWorkers, "largest accepted worker count")
	fs.StringSliceVar(&cfg.Security.AllowedOrigins, "cors-origin", cfg.Security.AllowedOrigins, "allowed CORS origins")
	fs.StringVar(&logLevel, "log-level", logLevel, "log level (debug, info, warn, error, disabled)")
	return cmd
}
