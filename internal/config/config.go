// Package config loads the toon command's settings from a TOML file.
//
// A config file looks like:
//
//	delimiter = "comma"
//	detect_delimiter = false
//	indent = "    "
//	strict = true
//	target = "go"
//	root_name = "Response"
//
// Every key is optional; missing keys keep their defaults. The delimiter is
// used for writing; reading detects it from the document unless
// detect_delimiter is false.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/toon-lang/go-toon"
	"github.com/toon-lang/go-toon/codegen"
)

const appName = "toon"

// Config holds the settings shared by every command.
type Config struct {
	Delimiter       string `toml:"delimiter"`
	DetectDelimiter bool   `toml:"detect_delimiter"`
	Indent          string `toml:"indent"`
	Strict          bool   `toml:"strict"`
	Target          string `toml:"target"`
	RootName        string `toml:"root_name"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Delimiter:       string(toon.DefaultDelimiter),
		DetectDelimiter: true,
		Indent:          "  ",
		Target:          codegen.TypeScript.String(),
		RootName:        codegen.DefaultRootName,
	}
}

// Load reads path on top of the defaults. Unknown keys are an error so
// typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the file at DefaultPath if it exists, and returns the
// defaults otherwise.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns the config location using the XDG layout
// (~/.config/toon/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks that every setting can be used.
func (c Config) Validate() error {
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if _, err := ParseIndent(c.Indent); err != nil {
		return err
	}
	if _, err := codegen.ParseTarget(c.Target); err != nil {
		return err
	}
	return nil
}

// EncodeOptions returns the encoder settings. Invalid values fall back to
// the encoder defaults; call Validate first to catch them.
func (c Config) EncodeOptions() toon.EncodeOptions {
	delim, _ := ParseDelimiter(c.Delimiter)
	indent, _ := ParseIndent(c.Indent)
	return toon.EncodeOptions{Indent: indent, Delimiter: delim}
}

// DecodeOptions returns the decoder settings. A zero Delimiter lets the
// decoder detect it.
func (c Config) DecodeOptions() toon.DecodeOptions {
	if c.DetectDelimiter {
		return toon.DecodeOptions{Strict: c.Strict}
	}
	delim, _ := ParseDelimiter(c.Delimiter)
	return toon.DecodeOptions{Delimiter: delim, Strict: c.Strict}
}

// CodegenTarget returns the configured type generation target.
func (c Config) CodegenTarget() (codegen.Target, error) {
	return codegen.ParseTarget(c.Target)
}

var delimiterNames = map[string]rune{
	"colon":     toon.DelimiterColon,
	"comma":     toon.DelimiterComma,
	"tab":       toon.DelimiterTab,
	"semicolon": toon.DelimiterSemicolon,
	"pipe":      toon.DelimiterPipe,
}

// ParseDelimiter accepts a delimiter by name ("comma") or as the character
// itself (","). An empty string selects the default.
func ParseDelimiter(s string) (rune, error) {
	if s == "" {
		return toon.DefaultDelimiter, nil
	}
	if r, ok := delimiterNames[strings.ToLower(s)]; ok {
		return r, nil
	}
	if s == `\t` {
		return toon.DelimiterTab, nil
	}
	if r := []rune(s); len(r) == 1 {
		for _, d := range delimiterNames {
			if r[0] == d {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid delimiter %q", s)
}

// ParseIndent accepts an indent unit made of spaces and tabs, or the word
// "tab". An empty string selects the default.
func ParseIndent(s string) (string, error) {
	switch {
	case s == "":
		return "  ", nil
	case strings.EqualFold(s, "tab"), s == `\t`:
		return "\t", nil
	case strings.Trim(s, " \t") == "":
		return s, nil
	}
	return "", fmt.Errorf("invalid indent %q", s)
}
