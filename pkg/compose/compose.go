// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package compose fills plain text mail templates by literal substitution of
// @TOKEN@ placeholders.
package compose

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/telekom/gradenotify/pkg/score"
)

// Placeholders recognised in score mode.
const (
	TokenScore    = "@SCORE@"
	TokenGradeNum = "@GRADENUM@"
	TokenGradeTxt = "@GRADETXT@"
	TokenEpilogue = "@EPILOGUE@"
)

const (
	DefaultFailingEpilogue = "Życzę powodzenia na poprawie,"
	DefaultPassingEpilogue = "Gratuluję,"
)

// Epilogues are the closing phrases appended depending on the grade.
type Epilogues struct {
	Failing string `yaml:"failing,omitempty"`
	Passing string `yaml:"passing,omitempty"`
}

// DefaultEpilogues returns the standard closing phrases.
func DefaultEpilogues() Epilogues {
	return Epilogues{Failing: DefaultFailingEpilogue, Passing: DefaultPassingEpilogue}
}

// Composer renders mail bodies from templates.
type Composer struct {
	Grading   score.Grading
	Epilogues Epilogues
}

// New returns a Composer using the given grading table. Empty epilogues fall
// back to the defaults.
func New(grading score.Grading, epilogues Epilogues) *Composer {
	def := DefaultEpilogues()
	if epilogues.Failing == "" {
		epilogues.Failing = def.Failing
	}
	if epilogues.Passing == "" {
		epilogues.Passing = def.Passing
	}
	if len(grading) == 0 {
		grading = score.DefaultGrading
	}
	return &Composer{Grading: grading, Epilogues: epilogues}
}

// ComposeScore reads the template at path and fills it for s.
func (c *Composer) ComposeScore(path string, s score.Score) (string, error) {
	tmpl, err := readTemplate(path)
	if err != nil {
		return "", err
	}
	return c.ScoreText(tmpl, s)
}

// ComposeRecord reads the template at path and fills it from record.
func (c *Composer) ComposeRecord(path string, record map[string]string) (string, error) {
	tmpl, err := readTemplate(path)
	if err != nil {
		return "", err
	}
	return RecordText(tmpl, record), nil
}

// ScoreText fills the score placeholders of tmpl. Grade labels and epilogues
// are NFC-normalized before insertion. It fails when s is outside the grading
// table.
func (c *Composer) ScoreText(tmpl string, s score.Score) (string, error) {
	band, err := c.Grading.Lookup(s)
	if err != nil {
		return "", err
	}
	epilogue := c.Epilogues.Passing
	if band.Failing() {
		epilogue = c.Epilogues.Failing
	}
	r := strings.NewReplacer(
		TokenScore, s.String(),
		TokenGradeNum, norm.NFC.String(band.Numeric),
		TokenGradeTxt, norm.NFC.String(band.Text),
		TokenEpilogue, norm.NFC.String(epilogue),
	)
	return r.Replace(tmpl), nil
}

// RecordText replaces every @key@ token in tmpl with "key:\tvalue". Tokens
// without a matching key are left untouched. Only the inserted text is
// NFC-normalized; the template itself is kept byte for byte.
func RecordText(tmpl string, record map[string]string) string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "@"+k+"@", norm.NFC.String(fmt.Sprintf("%s:\t%s", k, record[k])))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func readTemplate(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(raw), nil
}
