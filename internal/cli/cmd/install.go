package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aayushdutt/mcinstall/internal/cli"
	"github.com/aayushdutt/mcinstall/internal/install"
	"github.com/aayushdutt/mcinstall/internal/ui"
)

// NewInstallCommand installs a version
func NewInstallCommand(a *cli.App) *cobra.Command {
	var (
		offline bool
		tui     bool
	)

	installCmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install a version, downloading whatever is missing or corrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Config.EnsureDirs(); err != nil {
				return err
			}
			req := install.Request{VersionID: args[0], Offline: offline}
			result, err := runTask(cmd.Context(), a, req, tui)
			if result != nil {
				fmt.Fprintln(a.Out, result.Summary())
			}
			return err
		},
	}

	installCmd.Flags().BoolVar(&offline, "offline", false, "resolve from the install root only")
	installCmd.Flags().BoolVar(&tui, "tui", false, "show an interactive progress view")
	return installCmd
}

// runTask runs req either behind the progress view or with log output.
func runTask(ctx context.Context, a *cli.App, req install.Request, tui bool) (*install.Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	task := a.Installer.NewTask(req)

	if tui {
		model := ui.NewInstallModel(ctx, task, a.Client.Stats)
		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return nil, fmt.Errorf("running progress view: %w", err)
		}
		// The view quits as soon as the task ends.
		task.Stop()
		err := task.Wait()
		return task.Result(), err
	}

	task.OnProgress(func(p install.Progress) {
		if p.Item == "" {
			return
		}
		a.Log.Debug("checking", "stage", p.Stage, "item", p.Item, "done", p.Done, "total", p.Total)
	})
	err := task.Run(ctx)
	return task.Result(), err
}
