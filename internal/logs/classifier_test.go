package logs

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyay/kaspamon/internal/model"
)

// kaspadLine builds a well-formed fixed-width kaspad log line.
func kaspadLine(tag, text string) string {
	return fmt.Sprintf("2023-11-08 12:34:56.789+00:00 [%-5s] %s", tag, text)
}

func TestClassify_WellFormed(t *testing.T) {
	tests := []struct {
		name string
		line string
		want model.LogRecord
	}{
		{
			name: "warning",
			line: kaspadLine("WARN", "peer misbehaving"),
			want: model.LogRecord{Severity: model.SeverityWarning, Timestamp: "12:34:56.789", Text: "peer misbehaving"},
		},
		{
			name: "error",
			line: kaspadLine("ERROR", "db failure"),
			want: model.LogRecord{Severity: model.SeverityError, Timestamp: "12:34:56.789", Text: "db failure"},
		},
		{
			name: "info",
			line: kaspadLine("INFO", "starting"),
			want: model.LogRecord{Severity: model.SeverityInfo, Timestamp: "12:34:56.789", Text: "starting"},
		},
		{
			name: "processed under info",
			line: kaspadLine("INFO", "Processed 12 blocks and 40 headers"),
			want: model.LogRecord{Severity: model.SeverityProcessed, Timestamp: "12:34:56.789", Text: "Processed 12 blocks and 40 headers"},
		},
		{
			name: "processed under debug tag",
			line: kaspadLine("DEBUG", "Processed 1 block"),
			want: model.LogRecord{Severity: model.SeverityProcessed, Timestamp: "12:34:56.789", Text: "Processed 1 block"},
		},
		{
			name: "error wins over processed text",
			line: kaspadLine("ERROR", "Processed nothing"),
			want: model.LogRecord{Severity: model.SeverityError, Timestamp: "12:34:56.789", Text: "Processed nothing"},
		},
		{
			name: "surrounding whitespace trimmed",
			line: "  " + kaspadLine("WARN", "x") + "\r\n",
			want: model.LogRecord{Severity: model.SeverityWarning, Timestamp: "12:34:56.789", Text: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestClassify_ShortLinesAreInfo(t *testing.T) {
	base := kaspadLine("ERROR", "")
	for n := 0; n < minLineLen; n++ {
		line := base[:n]
		got := Classify(line)
		assert.Equal(t, model.SeverityInfo, got.Severity, "len %d", n)
		assert.Equal(t, strings.TrimSpace(line), got.Text)
		assert.Empty(t, got.Timestamp)
	}
}

func TestClassify_EmptyAndBlank(t *testing.T) {
	assert.Equal(t, model.LogRecord{Severity: model.SeverityInfo}, Classify(""))
	assert.Equal(t, model.LogRecord{Severity: model.SeverityInfo}, Classify(" \t\n"))
}

func TestClassify_MisalignedFallsBackToInfo(t *testing.T) {
	line := "this line is long enough but has no bracket at thirty ERROR"
	got := Classify(line)
	assert.Equal(t, model.SeverityInfo, got.Severity)
	assert.Equal(t, line, got.Text)
}

func TestClassify_NeverPanics(t *testing.T) {
	inputs := []string{
		strings.Repeat("[", 64),
		strings.Repeat("é", 40),
		"2023-11-08 12:34:56.789+00:00 [ERR",
		"2023-11-08 12:34:56.789+00:00 [WARN ]",
		"\x00\xff\xfe" + strings.Repeat("x", 27) + "[" + strings.Repeat("\xff", 10),
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { Classify(in) }, "input %q", in)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	line := kaspadLine("WARN", "same")
	assert.Equal(t, Classify(line), Classify(line))
}

func TestRing_TrimsInChunks(t *testing.T) {
	r := NewRing(10, 4)
	for i := 0; i < 10; i++ {
		r.Push(model.LogRecord{Text: fmt.Sprint(i)})
	}
	require.Equal(t, 10, r.Len())

	r.Push(model.LogRecord{Text: "10"})
	assert.Equal(t, 7, r.Len())
	recs := r.Records()
	assert.Equal(t, "4", recs[0].Text)
	assert.Equal(t, "10", recs[len(recs)-1].Text)
	assert.Equal(t, uint64(11), r.Total())
}

func TestRing_Tail(t *testing.T) {
	r := NewRing(0, 0)
	assert.Nil(t, r.Tail(3))
	r.Push(model.LogRecord{Text: "a"})
	r.Push(model.LogRecord{Text: "b"})

	tail := r.Tail(5)
	require.Len(t, tail, 2)
	assert.Equal(t, "b", tail[1].Text)

	tail[0].Text = "mutated"
	assert.Equal(t, "a", r.Records()[0].Text)
}
