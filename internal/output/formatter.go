// Package output renders result documents. Every document reaches this
// package as the JSON payload that was cached, so each format is derived
// from the same bytes a cache hit would return.
package output

import (
	"io"
	"strings"

	"github.com/rohankatakam/gitintel/internal/errors"
)

// Format names an output format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(payload []byte, w io.Writer) error
}

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", errors.InvalidParam("format", "invalid --format %q (expected json, yaml or text)", s)
	}
}

// NewFormatter creates the formatter for a format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatText:
		return &TextFormatter{MaxItems: DefaultTextItems}
	default:
		return &JSONFormatter{}
	}
}

// Render writes payload to w in the given format
func Render(format Format, payload []byte, w io.Writer) error {
	return NewFormatter(format).Format(payload, w)
}

// JSONFormatter writes the payload unchanged
type JSONFormatter struct{}

func (f *JSONFormatter) Format(payload []byte, w io.Writer) error {
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if len(payload) == 0 || payload[len(payload)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
