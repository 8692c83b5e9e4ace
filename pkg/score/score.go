// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package score

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal digits kept by a Score.
const Precision = 1

var (
	// ErrInvalidScore is returned when a value cannot be turned into a Score.
	ErrInvalidScore = errors.New("invalid score")
)

// Score is an immutable fixed-point decimal value.
type Score struct {
	scaled int64
}

// Factor returns the multiplier shifting the decimal point by Precision digits.
func Factor() int64 {
	f := int64(1)
	for i := 0; i < Precision; i++ {
		f *= 10
	}
	return f
}

// FromInt returns the Score for a whole number of points.
func FromInt(v int64) Score {
	return Score{scaled: v * Factor()}
}

// FromScaled returns the Score whose internal scaled representation is v.
func FromScaled(v int64) Score {
	return Score{scaled: v}
}

// FromString parses a decimal string such as "17.5" or "-1".
// The text is parsed as a decimal, never through binary floating point.
func FromString(s string) (Score, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Score{}, fmt.Errorf("%w: empty value", ErrInvalidScore)
	}
	// decimal comma is common in spreadsheets exported with a Polish locale
	trimmed = strings.Replace(trimmed, ",", ".", 1)
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q: %v", ErrInvalidScore, s, err)
	}
	return fromDecimal(d)
}

// FromFloat converts a floating point value, rounding to Precision digits.
func FromFloat(v float64) (Score, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Score{}, fmt.Errorf("%w: %v", ErrInvalidScore, v)
	}
	return fromDecimal(decimal.NewFromFloat(v))
}

// MustParse is like FromString but panics on error. It is meant for
// package level tables.
func MustParse(s string) Score {
	sc, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return sc
}

func fromDecimal(d decimal.Decimal) (Score, error) {
	shifted := d.Shift(Precision).RoundBank(0)
	if shifted.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64/10)) {
		return Score{}, fmt.Errorf("%w: %s out of range", ErrInvalidScore, d.String())
	}
	return Score{scaled: shifted.IntPart()}, nil
}

// Scaled returns the internal integer representation.
func (s Score) Scaled() int64 {
	return s.scaled
}

// Float returns the score as a floating point number.
func (s Score) Float() float64 {
	return float64(s.scaled) / float64(Factor())
}

// String formats the score with exactly Precision decimal digits.
func (s Score) String() string {
	return decimal.New(s.scaled, -Precision).StringFixed(Precision)
}

// Compare returns -1, 0 or +1 depending on whether s is less than, equal to
// or greater than o.
func (s Score) Compare(o Score) int {
	return cmp.Compare(s.scaled, o.scaled)
}

func (s Score) Equal(o Score) bool {
	return s.scaled == o.scaled
}

func (s Score) Less(o Score) bool {
	return s.scaled < o.scaled
}

func (s Score) LessOrEqual(o Score) bool {
	return s.scaled <= o.scaled
}

func (s Score) Greater(o Score) bool {
	return s.scaled > o.scaled
}

// IsZero reports whether the score is exactly zero points.
func (s Score) IsZero() bool {
	return s.scaled == 0
}

// MarshalText implements encoding.TextMarshaler.
func (s Score) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Score) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
