package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unitymcp/internal/app"
)

type rootOptions struct {
	configPath string
	portFile   string
	stdio      bool
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := rootOptions{}

	root := &cobra.Command{
		Use:   "unitymcpd",
		Short: "Unity MCP server configuration service",
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to optional YAML override file")
	root.PersistentFlags().StringVar(&opts.portFile, "port-file", opts.portFile, "path to unity-port.txt (default: next to the binary's parent directory)")

	root.AddCommand(
		newServeCmd(logger, &opts),
		newValidateCmd(logger, &opts),
		newConfigCmd(logger, &opts),
		newProbeCmd(logger, &opts),
	)

	return root
}

func newServeCmd(logger *zap.Logger, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the configuration service with its MCP and observability listeners",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(logger)
			return application.Serve(ctx, app.ServeConfig{
				ConfigPath: opts.configPath,
				PortFile:   opts.portFile,
				Stdio:      opts.stdio,
			})
		},
	}

	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "serve MCP over stdio instead of streamable HTTP")

	return cmd
}

func newValidateCmd(logger *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve the configuration without starting listeners",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(logger)
			return application.ValidateConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: opts.configPath,
				PortFile:   opts.portFile,
			})
		},
	}
}

func newConfigCmd(logger *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(logger)
			return application.ShowConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: opts.configPath,
				PortFile:   opts.portFile,
			}, cmd.OutOrStdout())
		},
	}
}

func newProbeCmd(logger *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the resolved Unity endpoint accepts a TCP connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(logger)
			return application.ProbeUnity(cmd.Context(), app.ValidateConfig{
				ConfigPath: opts.configPath,
				PortFile:   opts.portFile,
			})
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
