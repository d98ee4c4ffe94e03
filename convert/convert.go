// Package convert moves documents between TOON and the formats it is most
// often compared with. Every bridge goes through toon.Value, so key order is
// kept wherever the source format has one.
package convert

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/toon-lang/go-toon"
)

// Format names a document format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
	FormatTOON Format = "toon"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatXML, FormatTOON}
}

// ParseFormat resolves a format name, ignoring case. "yml" is accepted for
// YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	case "toon":
		return FormatTOON, nil
	}
	return "", fmt.Errorf("convert: unknown format %q", name)
}

// FormatFromPath guesses a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Options configures the TOON side of a conversion. The other formats have
// no options.
type Options struct {
	Encode toon.EncodeOptions
	Decode toon.DecodeOptions
}

// Parse reads data written in format f. Warnings are only produced for TOON
// input.
func Parse(f Format, data []byte, opts Options) (toon.Value, []toon.Warning, error) {
	var (
		v        toon.Value
		warnings []toon.Warning
		err      error
	)
	switch f {
	case FormatJSON:
		v, err = FromJSON(data)
	case FormatYAML:
		v, err = FromYAML(data)
	case FormatXML:
		v, err = FromXML(data)
	case FormatTOON:
		v, warnings, err = toon.DecodeWithOptions(string(data), opts.Decode)
		if err != nil {
			err = fmt.Errorf("convert: toon: %w", err)
		}
	default:
		return toon.Value{}, nil, fmt.Errorf("convert: unknown format %q", f)
	}
	return v, warnings, err
}

// Render writes v in format f.
func Render(f Format, v toon.Value, opts Options) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ToJSON(v)
	case FormatYAML:
		return ToYAML(v)
	case FormatXML:
		return ToXML(v)
	case FormatTOON:
		s, err := toon.Encode(v, opts.Encode)
		if err != nil {
			return nil, fmt.Errorf("convert: toon: %w", err)
		}
		return []byte(s), nil
	}
	return nil, fmt.Errorf("convert: unknown format %q", f)
}

// Convert parses data as from and renders it as to.
func Convert(from, to Format, data []byte, opts Options) ([]byte, []toon.Warning, error) {
	v, warnings, err := Parse(from, data, opts)
	if err != nil {
		return nil, warnings, err
	}
	out, err := Render(to, v, opts)
	return out, warnings, err
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
