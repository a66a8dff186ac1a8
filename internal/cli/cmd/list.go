package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aayushdutt/mcinstall/internal/cli"
	"github.com/aayushdutt/mcinstall/internal/core"
)

var (
	idStyle   = lipgloss.NewStyle().Width(28)
	typeStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#A1A1AA"))
	dateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// NewListCommand lists catalog versions
func NewListCommand(a *cli.App) *cobra.Command {
	var (
		snapshots bool
		all       bool
		since     string
		limit     int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List versions in the remote catalog",
		Long:  "List versions in the remote catalog. The latest release is marked * and the latest snapshot ~.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				list []core.Version
				err  error
			)
			switch {
			case since != "":
				list, err = a.Catalog.ReleasesMatching(ctx, since)
			case all:
				list, err = a.Catalog.ListVersions(ctx)
			case snapshots:
				list, err = a.Catalog.Snapshots(ctx)
			default:
				list, err = a.Catalog.Releases(ctx)
			}
			if err != nil {
				return err
			}

			latestRelease, err := a.Catalog.GetLatestRelease(ctx)
			if err != nil {
				return err
			}
			latestSnapshot, err := a.Catalog.GetLatestSnapshot(ctx)
			if err != nil {
				return err
			}

			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			for _, v := range list {
				id := v.ID
				switch id {
				case latestRelease:
					id += " *"
				case latestSnapshot:
					id += " ~"
				}
				fmt.Fprintln(a.Out, idStyle.Render(id)+typeStyle.Render(string(v.Type))+dateStyle.Render(humanize.Time(v.ReleaseTime)))
			}
			return nil
		},
	}

	listCmd.Flags().BoolVar(&snapshots, "snapshots", false, "list snapshots instead of releases")
	listCmd.Flags().BoolVar(&all, "all", false, "list every version type")
	listCmd.Flags().StringVar(&since, "since", "", `releases matching a version constraint, e.g. ">= 1.20"`)
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n versions")
	return listCmd
}
