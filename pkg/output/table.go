package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// GradeRow is one line of a grade listing.
type GradeRow struct {
	Student string `json:"student,omitempty" yaml:"student,omitempty"`
	Score   string `json:"score" yaml:"score"`
	Numeric string `json:"grade" yaml:"grade"`
	Text    string `json:"gradeText" yaml:"gradeText"`
	Failing bool   `json:"failing" yaml:"failing"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Painter colours grade labels. The zero value prints plain text.
type Painter struct {
	failing *color.Color
	passing *color.Color
	errored *color.Color
}

// NewPainter returns a Painter that emits ANSI colours only when enabled.
func NewPainter(enabled bool) Painter {
	p := Painter{
		failing: color.New(color.FgRed),
		passing: color.New(color.FgGreen),
		errored: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.failing, p.passing, p.errored} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p Painter) grade(r GradeRow) string {
	label := strings.TrimSpace(r.Numeric + " " + r.Text)
	switch {
	case r.Error != "":
		return paint(p.errored, r.Error)
	case r.Failing:
		return paint(p.failing, label)
	default:
		return paint(p.passing, label)
	}
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

// WriteGradeTable prints rows with the grade as last column, so colour
// codes do not disturb the column alignment.
func WriteGradeTable(w io.Writer, rows []GradeRow, p Painter) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	withStudent := len(rows) > 0 && rows[0].Student != ""
	if withStudent {
		_, _ = fmt.Fprintln(tw, "STUDENT\tSCORE\tGRADE")
	} else {
		_, _ = fmt.Fprintln(tw, "SCORE\tGRADE")
	}
	for _, r := range rows {
		score := r.Score
		if score == "" {
			score = "-"
		}
		if withStudent {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Student, score, p.grade(r))
		} else {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", score, p.grade(r))
		}
	}
	_ = tw.Flush()
}

// WriteKeyValueTable prints a two column table in the given key order.
func WriteKeyValueTable(w io.Writer, header [2]string, keys []string, values map[string]string) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "%s\t%s\n", header[0], header[1])
	for _, k := range keys {
		v := values[k]
		if v == "" {
			v = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", k, v)
	}
	_ = tw.Flush()
}
