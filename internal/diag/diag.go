// Package diag consumes the converter's structured diagnostics stream: a
// line-delimited JSON file the external process appends to while it runs.
package diag

import (
	"github.com/aotc-build/aotc/internal/msg"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one parsed entry from the converter's output stream. Entries
// are forwarded to the sink as they arrive and never persisted.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// Sink receives diagnostics as they are decoded.
type Sink interface {
	Report(d Diagnostic)
}

// ConsoleSink forwards diagnostics to the msg printers, preserving severity.
type ConsoleSink struct{}

func (ConsoleSink) Report(d Diagnostic) {
	text := d.Message
	if d.File != "" {
		text = d.File + ": " + text
	}
	switch d.Severity {
	case SeverityError:
		msg.Error("%s", text)
	case SeverityWarning:
		msg.Warn("%s", text)
	default:
		msg.Info("%s", text)
	}
}

// Collector is a Sink that also retains what it saw, so a process failure can
// carry its diagnostics. It forwards to an inner sink when one is set.
type Collector struct {
	Inner Sink
	Seen  []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Seen = append(c.Seen, d)
	if c.Inner != nil {
		c.Inner.Report(d)
	}
}

// Errors returns the error-severity subset of collected diagnostics.
func (c *Collector) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Seen {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
