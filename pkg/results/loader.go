// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package results

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/telekom/gradenotify/pkg/score"
)

const (
	DefaultDelimiter = ';'
	DefaultQuote     = '"'
)

var (
	ErrUnsupportedQuote = errors.New("only '\"' is supported as quote character")
	ErrNoKeyField       = errors.New("key field is required")
	ErrMissingKeyField  = errors.New("key field not found in header")
	ErrEmptyKey         = errors.New("row has an empty key")
	ErrTooManyFields    = errors.New("row has more fields than the header")
	ErrNoHeader         = errors.New("file has no header row")
)

// ParseError reports a malformed row together with its line number.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options controls how a results file is parsed.
type Options struct {
	Delimiter rune
	Quote     rune
	// KeyField names the header column used as record key. Only used by
	// LoadRecords.
	KeyField string
}

// DefaultOptions returns semicolon separated, double-quoted parsing options.
func DefaultOptions() Options {
	return Options{Delimiter: DefaultDelimiter, Quote: DefaultQuote}
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.Quote == 0 {
		o.Quote = DefaultQuote
	}
	return o
}

// LoadScores reads a file of "<id>;<score>" rows. A missing or empty score
// counts as zero points; columns after the score are ignored.
func LoadScores(path string, opts Options) (*Scores, error) {
	var out *Scores
	err := withFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadScores(r, opts)
		return err
	})
	return out, err
}

// LoadRows reads a file and maps the first column to the remaining ones.
func LoadRows(path string, opts Options) (*Rows, error) {
	var out *Rows
	err := withFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadRows(r, opts)
		return err
	})
	return out, err
}

// LoadRecords reads a file with a header row. Every following row becomes a
// map from header name to value, keyed by opts.KeyField.
func LoadRecords(path string, opts Options) (*Records, error) {
	var out *Records
	err := withFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadRecords(r, opts)
		return err
	})
	return out, err
}

// ReadScores is LoadScores for an already opened reader.
func ReadScores(r io.Reader, opts Options) (*Scores, error) {
	out := &Scores{}
	err := eachRow(r, opts, func(line int, row []string) error {
		id := strings.TrimSpace(row[0])
		if id == "" {
			return &ParseError{Line: line, Err: ErrEmptyKey}
		}
		value := score.FromInt(0)
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			parsed, err := score.FromString(row[1])
			if err != nil {
				return &ParseError{Line: line, Err: err}
			}
			value = parsed
		}
		out.Set(id, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRows is LoadRows for an already opened reader.
func ReadRows(r io.Reader, opts Options) (*Rows, error) {
	out := &Rows{}
	err := eachRow(r, opts, func(line int, row []string) error {
		id := strings.TrimSpace(row[0])
		if id == "" {
			return &ParseError{Line: line, Err: ErrEmptyKey}
		}
		rest := make([]string, len(row)-1)
		copy(rest, row[1:])
		out.Set(id, rest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRecords is LoadRecords for an already opened reader.
//
// Rows shorter than the header are accepted; their missing trailing fields
// are absent from the record. Rows longer than the header are rejected.
func ReadRecords(r io.Reader, opts Options) (*Records, error) {
	if opts.KeyField == "" {
		return nil, ErrNoKeyField
	}
	var (
		header []string
		keyIdx = -1
		out    = &Records{}
	)
	err := eachRow(r, opts, func(line int, row []string) error {
		if header == nil {
			header = make([]string, len(row))
			for i, name := range row {
				header[i] = strings.TrimSpace(name)
				if header[i] == opts.KeyField {
					keyIdx = i
				}
			}
			if keyIdx < 0 {
				return fmt.Errorf("%w: %q", ErrMissingKeyField, opts.KeyField)
			}
			return nil
		}
		if len(row) > len(header) {
			return &ParseError{Line: line, Err: fmt.Errorf("%w: got %d, want at most %d", ErrTooManyFields, len(row), len(header))}
		}
		if keyIdx >= len(row) || strings.TrimSpace(row[keyIdx]) == "" {
			return &ParseError{Line: line, Err: ErrEmptyKey}
		}
		record := make(map[string]string, len(row)-1)
		for i, value := range row {
			if i == keyIdx {
				continue
			}
			record[header[i]] = value
		}
		out.Set(strings.TrimSpace(row[keyIdx]), record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ErrNoHeader
	}
	return out, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()
	return fn(f)
}

// eachRow calls fn for every non-blank row. Line numbers are 1-based.
func eachRow(r io.Reader, opts Options, fn func(line int, row []string) error) error {
	opts = opts.withDefaults()
	if opts.Quote != DefaultQuote {
		return fmt.Errorf("%w: got %q", ErrUnsupportedQuote, opts.Quote)
	}

	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse results: %w", err)
		}
		if blank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
