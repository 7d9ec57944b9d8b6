package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oncology-insights-server/internal/config"
	"github.com/oncology-insights-server/internal/mcp"
	"github.com/oncology-insights-server/internal/setup"
)

func main() {
	root := &cobra.Command{
		Use:           "oncology-mcp-server",
		Short:         "Oncology risk scoring tools over the Model Context Protocol",
		Long:          "Runs the MCP tool server. Configuration is read from ONCO_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadLiteConfig()

			server, err := mcp.NewLiteServer(cfg)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Start(ctx)
		},
	}
	root.AddCommand(newSetupCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newSetupCommand() *cobra.Command {
	var opts setup.Options

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register this server with a desktop MCP client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DataDir == "" {
				opts.DataDir = config.LoadLiteConfig().DataDir
			}
			entry, err := setup.Register(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %q -> %s\n", setup.ServerKey, entry.Command)
			fmt.Fprintln(out, "Restart the MCP client to load the server.")
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "client-config", "", "client config file (default: Claude Desktop location)")
	cmd.Flags().StringVar(&opts.BinaryPath, "binary", "", "server binary (default: found on PATH)")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory passed as "+setup.DataDirEnv)
	cmd.Flags().StringVar(&opts.Transport, "transport", "stdio", "transport written to the client config")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check the client registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := setup.GetStatus(opts.ConfigPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:     %s\n", status.ConfigPath)
			fmt.Fprintf(out, "Registered: %t\n", status.Registered)
			if status.Registered {
				fmt.Fprintf(out, "Command:    %s\n", status.Entry.Command)
			}
			for _, issue := range status.Issues {
				fmt.Fprintf(out, "  ! %s\n", issue)
			}
			if len(status.Issues) > 0 && status.Registered {
				return fmt.Errorf("%d issue(s) found", len(status.Issues))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "Remove the server from the client config",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := setup.Unregister(opts.ConfigPath)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(cmd.OutOrStdout(), "Server entry removed.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Server was not registered.")
			}
			return nil
		},
	})
	return cmd
}
