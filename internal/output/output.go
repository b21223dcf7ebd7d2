// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// IsText reports whether human-readable output is selected.
func (w *Writer) IsText() bool {
	return w.format == FormatText || w.format == ""
}

// Write outputs v in the configured format. Text output uses v's String
// method when it has one.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json output: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml output: %w", err)
		}
		return enc.Close()
	}

	var err error
	if s, ok := v.(fmt.Stringer); ok {
		_, err = fmt.Fprintln(w.w, s.String())
	} else {
		_, err = fmt.Fprintf(w.w, "%+v\n", v)
	}
	return err
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

const barWidth = 30

// Progress draws a download progress bar, redrawing only when the whole
// percentage changes.
type Progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar

	mu      sync.Mutex
	percent int
	ended   bool
}

// NewProgress creates a progress bar prefixed with label.
func NewProgress(w io.Writer, label string) *Progress {
	p := &Progress{w: w, percent: -1}
	p.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return p
}

// Update moves the bar to fraction in [0, 1].
func (p *Progress) Update(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	percent := int(fraction * 100)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended || percent == p.percent {
		return
	}
	p.percent = percent
	_ = p.bar.Set(percent)
}

// Done ends the bar's line, leaving an unfinished bar at its last value.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return
	}
	p.ended = true
	if p.percent >= 0 {
		_, _ = fmt.Fprintln(p.w)
	}
}
