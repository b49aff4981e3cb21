package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/dealdesk/internal/config"
	"github.com/kingrea/dealdesk/internal/store"
	"github.com/kingrea/dealdesk/internal/tui"
)

func newRootCmd() *cobra.Command {
	var dir string
	root := &cobra.Command{
		Use:   "dealdesk",
		Short: "Terminal forms for deals, pipelines and contacts",
		Long: `dealdesk keeps a small CRM in the .dealdesk directory of a project and
opens a terminal UI for creating and editing deals and people.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(dir)
		},
	}
	root.PersistentFlags().StringVarP(&dir, "dir", "d", "", "project directory (default is the current directory)")

	root.AddCommand(
		newInitCmd(&dir),
		newDealsCmd(&dir),
		newPipelinesCmd(&dir),
	)
	return root
}

func newInitCmd(dir *string) *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .dealdesk directory, config and fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := resolveDir(*dir)
			if err != nil {
				return err
			}
			if err := config.InitDeskDir(projectDir); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			cfg, err := config.NewConfig(projectDir)
			if err != nil {
				return err
			}
			if driver != "" {
				if err := cfg.SetStoreDriver(driver); err != nil {
					return err
				}
			}
			if err := store.WriteFixtures(cfg.Store().Fixtures, store.DefaultFixtures()); err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "dealdesk initialized successfully!")
			fmt.Fprintf(out, "Directory: %s\n", cfg.DeskProjectDir)
			fmt.Fprintf(out, "Store:     %s\n", describeStore(cfg))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "record store driver (memory or sqlite)")
	return cmd
}

func newDealsCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deals",
		Short: "List deals with their pipeline and stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dir, func(ctx context.Context, st store.Store) error {
				return printDeals(ctx, cmd.OutOrStdout(), st)
			})
		},
	}
}

func newPipelinesCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List pipelines and their ordered stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dir, func(ctx context.Context, st store.Store) error {
				return printPipelines(ctx, cmd.OutOrStdout(), st)
			})
		},
	}
}

func runTUI(dir string) error {
	projectDir, err := resolveDir(dir)
	if err != nil {
		return err
	}
	if err := config.InitDeskDir(projectDir); err != nil {
		return fmt.Errorf("error initializing %s directory: %w", config.DeskDir, err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	app, err := tui.NewApp(projectDir, tui.WithStore(st))
	if err != nil {
		return err
	}
	// Use alternate screen buffer (like vim does)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func withStore(cmd *cobra.Command, dir string, fn func(context.Context, store.Store) error) error {
	projectDir, err := resolveDir(dir)
	if err != nil {
		return err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
	defer cancel()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return cwd, nil
	}
	return filepath.Abs(dir)
}
