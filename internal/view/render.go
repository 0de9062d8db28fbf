// Package view renders diff results for human and machine consumers.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"github.com/treeline-io/treeline/internal/diff"
	"github.com/treeline-io/treeline/internal/errors"
)

type colorFunc func(string) string

func plain(s string) string { return s }

var statusStyles = map[diff.Status]string{
	diff.StatusAdded:    "green",
	diff.StatusRemoved:  "red",
	diff.StatusModified: "yellow",
	diff.StatusIgnored:  "black+h",
}

// Writer renders collected diff events to an output stream, one
// `<symbol> <path>` line per event, with per-subtree errors listed after
// the events.
type Writer struct {
	out    io.Writer
	colors map[diff.Status]colorFunc
	json   bool
}

// NewWriter builds a renderer. Color is only applied when enabled and the
// stream is a terminal; JSON output is never colored.
func NewWriter(out io.Writer, colorEnabled, jsonOutput bool) *Writer {
	writer := &Writer{
		out:    out,
		colors: make(map[diff.Status]colorFunc, len(statusStyles)),
		json:   jsonOutput,
	}

	useColor := colorEnabled && !jsonOutput && isTerminal(out)

	for status, style := range statusStyles {
		if useColor {
			writer.colors[status] = ansi.ColorFunc(style)
		} else {
			writer.colors[status] = plain
		}
	}

	return writer
}

// Render writes the collector's events and errors.
func (w *Writer) Render(collector *diff.Collector) error {
	if w.json {
		return w.renderJSON(collector)
	}

	return w.renderText(collector)
}

func (w *Writer) renderText(collector *diff.Collector) error {
	for _, event := range collector.Events() {
		line := fmt.Sprintf("%s %s", event.Status.Symbol(), event.Path)

		if _, err := fmt.Fprintln(w.out, w.colorFor(event.Status)(line)); err != nil {
			return errors.WithStackTrace(err)
		}
	}

	for _, pathErr := range collector.Errors() {
		if _, err := fmt.Fprintf(w.out, "error: %s: %v\n", pathErr.Path, pathErr.Err); err != nil {
			return errors.WithStackTrace(err)
		}
	}

	return nil
}

type jsonEvent struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

type jsonError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type jsonReport struct {
	Events []jsonEvent `json:"events"`
	Errors []jsonError `json:"errors,omitempty"`
}

func (w *Writer) renderJSON(collector *diff.Collector) error {
	report := jsonReport{Events: make([]jsonEvent, 0, collector.Len())}

	for _, event := range collector.Events() {
		report.Events = append(report.Events, jsonEvent{
			Path:   event.Path,
			Status: event.Status.String(),
			Kind:   event.Kind.String(),
		})
	}

	for _, pathErr := range collector.Errors() {
		report.Errors = append(report.Errors, jsonError{Path: pathErr.Path, Error: pathErr.Err.Error()})
	}

	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")

	return errors.WithStackTrace(encoder.Encode(report))
}

func (w *Writer) colorFor(status diff.Status) colorFunc {
	if fn, ok := w.colors[status]; ok {
		return fn
	}

	return plain
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
