package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the event stream and serve the view API",
	Long: `Connect to the agent event stream and serve the view API until
interrupted. Configuration comes from the environment (STREAM_URL or
SIGNER_ENDPOINT, PORT, LOG_LEVEL, ...); flags override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("url") {
			cfg.Transport.URL, _ = flags.GetString("url")
		}
		if flags.Changed("signer") {
			cfg.Transport.SignerEndpoint, _ = flags.GetString("signer")
		}
		if flags.Changed("port") {
			cfg.Server.Port, _ = flags.GetString("port")
		}
		if flags.Changed("dev") {
			cfg.Logging.Development, _ = flags.GetBool("dev")
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		srv, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("url", "", "Pre-signed event stream URL (overrides STREAM_URL)")
	serveCmd.Flags().String("signer", "", "URL signing endpoint (overrides SIGNER_ENDPOINT)")
	serveCmd.Flags().String("port", "", "View API port (overrides PORT)")
	serveCmd.Flags().Bool("dev", false, "Development logging")
}
