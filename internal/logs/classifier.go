// Package logs turns raw node output into classified records.
package logs

import (
	"strings"

	"github.com/kostyay/kaspamon/internal/model"
)

// Fixed-width layout of a kaspad log line:
//
//	2023-11-08 12:34:56.789+00:00 [INFO ] Processed 12 blocks ...
//	           ^ts[11:23]         ^30 ^tag[31:36]
const (
	minLineLen     = 38
	delimiterPos   = 30
	timestampStart = 11
	timestampEnd   = 23
	tagStart       = 31
	tagEnd         = 36
	textStart      = 38
)

// Classify maps one line of node output to a LogRecord.
// It never fails: anything that does not match the fixed-width layout is Info.
func Classify(line string) model.LogRecord {
	line = strings.TrimSpace(line)
	if len(line) < minLineLen || line[delimiterPos] != '[' {
		return model.LogRecord{Severity: model.SeverityInfo, Text: line}
	}

	rec := model.LogRecord{
		Timestamp: line[timestampStart:timestampEnd],
		Text:      line[textStart:],
	}
	switch line[tagStart:tagEnd] {
	case "WARN ":
		rec.Severity = model.SeverityWarning
	case "ERROR":
		rec.Severity = model.SeverityError
	default:
		if strings.HasPrefix(rec.Text, "Processed") {
			rec.Severity = model.SeverityProcessed
		} else {
			rec.Severity = model.SeverityInfo
		}
	}
	return rec
}
