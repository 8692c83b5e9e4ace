package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/output"
	"github.com/telekom/gradenotify/pkg/results"
)

// recordRow is the JSON/YAML form of a keyed record.
type recordRow struct {
	Key    string            `json:"key" yaml:"key"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

func NewResultsCommand() *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List the results file with the grade of every student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg := *rt.cfg
			in.apply(cmd, &cfg)
			opts := cfg.ResultsOptions()

			if cfg.KeyField != "" {
				records, err := results.LoadRecords(cfg.Input, opts)
				if err != nil {
					return err
				}
				return rt.writeRecords(records)
			}

			scores, err := results.LoadScores(cfg.Input, opts)
			if err != nil {
				return err
			}
			grading := cfg.EffectiveGrading()
			rows := make([]output.GradeRow, 0, scores.Len())
			for _, e := range scores.Entries() {
				rows = append(rows, gradeRow(e.Key, e.Value, grading))
			}
			return rt.writeGrades(rows)
		},
	}

	in.register(cmd)
	return cmd
}

func (rt *runtimeState) writeRecords(records *results.Records) error {
	format := rt.OutputFormat()
	if format != output.FormatTable {
		rows := make([]recordRow, 0, records.Len())
		for _, e := range records.Entries() {
			rows = append(rows, recordRow{Key: e.Key, Fields: e.Value})
		}
		return output.WriteObject(rt.Writer(), format, rows)
	}

	values := make(map[string]string, records.Len())
	for _, e := range records.Entries() {
		names := make([]string, 0, len(e.Value))
		for name := range e.Value {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]string, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, fmt.Sprintf("%s=%s", name, e.Value[name]))
		}
		values[e.Key] = strings.Join(pairs, " ")
	}
	output.WriteKeyValueTable(rt.Writer(), [2]string{"KEY", "FIELDS"}, records.Keys(), values)
	return nil
}
