package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aayushdutt/mcinstall/internal/cli"
	"github.com/aayushdutt/mcinstall/internal/core"
)

// NewShowCommand resolves a version and prints it
func NewShowCommand(a *cli.App) *cobra.Command {
	var (
		offline bool
		asJSON  bool
	)

	showCmd := &cobra.Command{
		Use:   "show <version|url>",
		Short: "Resolve a version and print the merged result",
		Long: `Resolve a version and print the merged result. The argument is a
version id, or the URL of a version document whose parents are looked up
in the install root and the catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				v   *core.ResolvedVersion
				err error
			)
			switch {
			case isLocator(args[0]):
				if offline {
					return fmt.Errorf("cannot fetch %s offline", args[0])
				}
				v, err = a.Resolver.ResolveFromLocator(ctx, args[0])
			case offline:
				v, err = a.Resolver.Resolve(ctx, args[0])
			default:
				v, err = a.Resolver.ResolveRemote(ctx, args[0])
				if core.KindOf(err) == core.KindVersionMissing {
					v, err = a.Resolver.Resolve(ctx, args[0])
				}
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(v.Document())
			}

			platform := a.Config.TargetPlatform()
			required := 0
			libs := v.Libraries()
			for _, lib := range libs {
				if core.IsRequired(lib, platform) {
					required++
				}
			}

			fmt.Fprintf(a.Out, "id:         %s\n", v.ID())
			fmt.Fprintf(a.Out, "type:       %s\n", v.Type())
			if v.InheritsFrom() != "" {
				fmt.Fprintf(a.Out, "inherits:   %s\n", v.InheritsFrom())
			}
			fmt.Fprintf(a.Out, "main class: %s\n", v.MainClass())
			if client, ok := v.Client(); ok {
				fmt.Fprintf(a.Out, "client:     %s.jar (%s)\n", v.JarName(), humanize.Bytes(uint64(max(client.Size, 0))))
			}
			fmt.Fprintf(a.Out, "libraries:  %d (%d on %s)\n", len(libs), required, platform)
			if ref, ok := v.AssetIndex(); ok {
				fmt.Fprintf(a.Out, "assets:     %s (%s)\n", ref.ID, humanize.Bytes(uint64(max(ref.TotalSize, 0))))
			}
			if java, ok := v.JavaVersion(); ok {
				fmt.Fprintf(a.Out, "java:       %d (%s)\n", java.MajorVersion, java.Component)
			}
			argv := v.Arguments()
			form := "structured"
			if v.IsLegacyArguments() {
				form = "legacy"
			}
			fmt.Fprintf(a.Out, "arguments:  %d game, %d jvm (%s)\n", len(argv.Game), len(argv.JVM), form)
			if t := v.ReleaseTime(); !t.IsZero() {
				fmt.Fprintf(a.Out, "released:   %s\n", t.Format("2006-01-02"))
			}
			return nil
		},
	}

	showCmd.Flags().BoolVar(&offline, "offline", false, "resolve from the install root only")
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the resolved version document")
	return showCmd
}

func isLocator(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}
