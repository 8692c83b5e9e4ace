package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/output"
	"github.com/telekom/gradenotify/pkg/score"
)

func NewGradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "grade <score>...",
		Short:   "Print the grade for one or more scores",
		Example: "  gradenotify grade 16 17,5 29.9",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			grading := rt.cfg.EffectiveGrading()
			rows := make([]output.GradeRow, 0, len(args))
			for _, arg := range args {
				s, err := score.FromString(arg)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", arg, err)
				}
				rows = append(rows, gradeRow("", s, grading))
			}
			return rt.writeGrades(rows)
		},
	}
	return cmd
}

func gradeRow(student string, s score.Score, grading score.Grading) output.GradeRow {
	row := output.GradeRow{Student: student, Score: s.String()}
	band, err := grading.Lookup(s)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Numeric = band.Numeric
	row.Text = band.Text
	row.Failing = band.Failing()
	return row
}

func (rt *runtimeState) writeGrades(rows []output.GradeRow) error {
	format := rt.OutputFormat()
	if format == output.FormatTable {
		output.WriteGradeTable(rt.Writer(), rows, rt.Painter())
		return nil
	}
	return output.WriteObject(rt.Writer(), format, rows)
}
