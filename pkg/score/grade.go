// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package score

import (
	"errors"
	"fmt"
)

// FailingGrade is the numeric label of the failing band.
const FailingGrade = "2.0"

var (
	// ErrOutOfRange is returned when a score lies outside every grade band.
	ErrOutOfRange = errors.New("score is outside grading boundaries")
	// ErrInvalidGrading is returned by Grading.Validate.
	ErrInvalidGrading = errors.New("invalid grading table")
)

// GradeBand maps scores in (Low, High] to a numeric and a text grade label.
type GradeBand struct {
	Low     Score  `json:"low" yaml:"low"`
	High    Score  `json:"high" yaml:"high"`
	Numeric string `json:"numeric" yaml:"numeric"`
	Text    string `json:"text" yaml:"text"`
}

// Contains reports whether s falls into the band. The lower bound is
// exclusive, the upper bound inclusive.
func (b GradeBand) Contains(s Score) bool {
	return s.Greater(b.Low) && s.LessOrEqual(b.High)
}

// Failing reports whether the band carries the failing grade.
func (b GradeBand) Failing() bool {
	return b.Numeric == FailingGrade
}

// Grading is an ordered table of grade bands.
type Grading []GradeBand

// DefaultGrading is the grading scale used for the 30 point colloquium.
var DefaultGrading = Grading{
	{Low: MustParse("-4"), High: MustParse("15"), Numeric: "2.0", Text: "niedostateczny"},
	{Low: MustParse("15"), High: MustParse("17.5"), Numeric: "3.0", Text: "dostateczny"},
	{Low: MustParse("17.5"), High: MustParse("20"), Numeric: "3.5", Text: "dostateczny+"},
	{Low: MustParse("20"), High: MustParse("22.5"), Numeric: "4.0", Text: "dobry"},
	{Low: MustParse("22.5"), High: MustParse("25"), Numeric: "4.5", Text: "dobry+"},
	{Low: MustParse("25"), High: MustParse("27.5"), Numeric: "5.0", Text: "bardzo dobry"},
	{Low: MustParse("27.5"), High: MustParse("30"), Numeric: "5.5", Text: "celujący"},
}

// Lookup returns the first band containing s.
func (g Grading) Lookup(s Score) (GradeBand, error) {
	for _, band := range g {
		if band.Contains(s) {
			return band, nil
		}
	}
	return GradeBand{}, fmt.Errorf("%w: %s", ErrOutOfRange, s)
}

// Validate checks that the table is non-empty and that its bands are
// well-formed, contiguous and non-overlapping.
func (g Grading) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("%w: no grade bands", ErrInvalidGrading)
	}
	for i, band := range g {
		if !band.Low.Less(band.High) {
			return fmt.Errorf("%w: band %d: low %s must be below high %s", ErrInvalidGrading, i, band.Low, band.High)
		}
		if band.Numeric == "" {
			return fmt.Errorf("%w: band %d: numeric label is empty", ErrInvalidGrading, i)
		}
		if i > 0 && !g[i-1].High.Equal(band.Low) {
			return fmt.Errorf("%w: band %d starts at %s but previous band ends at %s", ErrInvalidGrading, i, band.Low, g[i-1].High)
		}
	}
	return nil
}

// Bounds returns the exclusive minimum and the inclusive maximum score
// accepted by the table. It must only be called on a validated table.
func (g Grading) Bounds() (Score, Score) {
	return g[0].Low, g[len(g)-1].High
}

// Grade looks s up in DefaultGrading.
func (s Score) Grade() (GradeBand, error) {
	return DefaultGrading.Lookup(s)
}
