package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/internal/app"
	"github.com/ncobase/weibo-agent/job/structs"
	"github.com/ncobase/weibo-agent/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "weibo-agent",
		Short:         "Asynchronous Weibo account automation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (searched in ./, $HOME/.weibo-agent and /etc/weibo-agent when empty)")

	rootCmd.AddCommand(
		NewServeCommand(&configFile),
		NewWorkerCommand(&configFile),
		NewVersionCommand(),
	)

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand(configFile *string) *cobra.Command {
	var embedded bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, with embedded workers by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*configFile, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx, embedded)
			})
		},
	}

	cmd.Flags().BoolVar(&embedded, "workers", true, "run job workers in this process")
	return cmd
}

// NewWorkerCommand creates the worker command
func NewWorkerCommand(configFile *string) *cobra.Command {
	var lanes []string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run job workers against a shared broker and store",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseLanes(lanes)
			if err != nil {
				return err
			}
			return run(*configFile, func(ctx context.Context, a *app.App) error {
				return a.Work(ctx, selected...)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&lanes, "lanes", "l", []string{string(structs.LaneAnalysis), string(structs.LaneDeletion)}, "lanes to work")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetVersionInfo()
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return nil
			}
			s, err := info.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func run(configFile string, fn func(ctx context.Context, a *app.App) error) error {
	if _, err := config.Init(configFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, cleanup, err := app.InitializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a)
}

func parseLanes(names []string) ([]structs.Lane, error) {
	known := make(map[structs.Lane]bool, len(structs.Lanes))
	for _, l := range structs.Lanes {
		known[l] = true
	}

	var lanes []structs.Lane
	for _, n := range names {
		l := structs.Lane(strings.TrimSpace(n))
		if !known[l] {
			return nil, fmt.Errorf("unknown lane %q", n)
		}
		lanes = append(lanes, l)
	}
	if len(lanes) == 0 {
		return nil, fmt.Errorf("no lanes selected")
	}
	return lanes, nil
}
