// Package buildlog is the non-throwing diagnostic channel the scanner
// reports through: callers record errors and warnings as they're found
// and drain them afterward rather than aborting the scan. Rendering for
// CLI output goes through github.com/pterm/pterm, styled per severity,
// rather than hand-rolled ANSI escapes.
package buildlog

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

type Kind uint8

const (
	Error Kind = iota
	Warning
)

// Location pinpoints a diagnostic inside a source file.
type Location struct {
	File   string
	Line   int // 1-based
	Column int // 0-based
}

type Msg struct {
	Kind     Kind
	Text     string
	Location *Location
}

func (m Msg) String() string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}

// Log collects diagnostics without ever panicking or returning an error to
// the caller, so a parse failure in one file can never abort the scan of
// the rest of the graph (spec §7).
type Log struct {
	mu   sync.Mutex
	msgs []Msg
}

func NewLog() *Log {
	return &Log{}
}

// Error records a fatal-for-this-file diagnostic. file/line/column may be
// zero-valued when no location is available.
func (l *Log) Error(text string, file string, line int, column int) {
	l.append(Msg{Kind: Error, Text: text, Location: &Location{File: file, Line: line, Column: column}})
}

func (l *Log) Warning(text string) {
	l.append(Msg{Kind: Warning, Text: text})
}

func (l *Log) append(msg Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *Log) Messages() []Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Msg{}, l.msgs...)
}

func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if m.Kind == Error {
			return true
		}
	}
	return false
}

// Print renders every collected message through pterm, one styled printer
// per severity, mirroring cem's internal/logging init() styling.
func (l *Log) Print() {
	for _, m := range l.Messages() {
		switch m.Kind {
		case Error:
			pterm.Error.Println(m.String())
		default:
			pterm.Warning.Println(m.String())
		}
	}
}
