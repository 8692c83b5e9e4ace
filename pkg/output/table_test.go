package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGradeTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	WriteGradeTable(&buf, []GradeRow{
		{Student: "123456", Score: "16.0", Numeric: "3.0", Text: "dostateczny"},
		{Student: "234567", Score: "0.0", Numeric: "2.0", Text: "niedostateczny", Failing: true},
		{Student: "345678", Score: "31.0", Error: "score is outside grading boundaries: 31.0"},
	}, NewPainter(false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"STUDENT", "SCORE", "GRADE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"123456", "16.0", "3.0", "dostateczny"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"234567", "0.0", "2.0", "niedostateczny"}, strings.Fields(lines[2]))
	assert.Contains(t, lines[3], "outside grading boundaries")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriteGradeTable_WithoutStudent(t *testing.T) {
	var buf bytes.Buffer
	WriteGradeTable(&buf, []GradeRow{{Score: "27.5", Numeric: "5.0", Text: "bardzo dobry"}}, Painter{})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"SCORE", "GRADE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"27.5", "5.0", "bardzo", "dobry"}, strings.Fields(lines[1]))
}

func TestWriteGradeTable_Colour(t *testing.T) {
	var buf bytes.Buffer
	WriteGradeTable(&buf, []GradeRow{
		{Student: "1", Score: "10.0", Numeric: "2.0", Text: "niedostateczny", Failing: true},
		{Student: "2", Score: "20.0", Numeric: "3.5", Text: "dostateczny+"},
	}, NewPainter(true))

	out := buf.String()
	assert.Contains(t, out, "\x1b[31m2.0 niedostateczny\x1b[0m")
	assert.Contains(t, out, "\x1b[32m3.5 dostateczny+\x1b[0m")
}

func TestWriteKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	WriteKeyValueTable(&buf, [2]string{"FIELD", "VALUE"}, []string{"version", "commit"}, map[string]string{"version": "1.0.0"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"version", "1.0.0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"commit", "-"}, strings.Fields(lines[2]))
}
