package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/output"
	"github.com/telekom/gradenotify/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show gradenotify version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			// Get runtime if available (for custom writer), but don't fail if missing
			rt, _ := getRuntime(cmd)
			writer := cmd.OutOrStdout()
			format := output.FormatTable
			if rt != nil {
				writer = rt.Writer()
				format = rt.OutputFormat()
			}

			if format != output.FormatTable {
				return output.WriteObject(writer, format, info)
			}
			_, _ = fmt.Fprintf(writer, "%s %s (commit: %s, built: %s)\n", version.Name, info.Version, info.GitCommit, info.BuildDate)
			return nil
		},
	}
	return cmd
}
