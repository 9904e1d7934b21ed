package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/niels/mdserve/pkg/builder"
	"github.com/niels/mdserve/pkg/progress"
	"github.com/niels/mdserve/pkg/render"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [source] [destination]",
		Short: "Render a directory of Markdown into a static HTML tree",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := cfg.Build.Source
			dest := cfg.Build.Output
			if len(args) > 0 {
				source = args[0]
			}
			if len(args) > 1 {
				dest = args[1]
			}

			out := cmd.OutOrStdout()
			renderer := render.New(render.Options{CodeStyle: cfg.Render.CodeStyle})
			b := builder.New(renderer,
				builder.WithTracker(progress.NewConsoleTracker().WithWriter(out)),
				builder.WithSourceExtension(cfg.Render.SourceExtension),
			)

			stats, err := b.Build(source, dest)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			color.New(color.FgGreen, color.Bold).Fprintln(out, "Done!")
			fmt.Fprintf(out, "Files copied: %d\nFiles parsed: %d\n", stats.FilesCopied, stats.FilesParsed)
			if stats.FilesFailed > 0 {
				color.New(color.FgRed).Fprintf(out, "Files failed: %d\n", stats.FilesFailed)
			}

			return nil
		},
	}
}
