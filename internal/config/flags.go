package config

import (
	"github.com/cockroachdb/errors"
)

type ColorMode string

const (
	ColorModeAuto   ColorMode = "auto"   // Use colors only when TTY
	ColorModeAlways ColorMode = "always" // Always use colors/icons
	ColorModeNever  ColorMode = "never"  // Never use colors/icons
)

// String implements the flag.Value interface for ColorMode
func (c *ColorMode) String() string {
	if c == nil || *c == "" {
		return string(ColorModeAuto)
	}
	return string(*c)
}

// Set implements the flag.Value interface for ColorMode
func (c *ColorMode) Set(value string) error {
	switch value {
	case "always", "auto", "never":
		*c = ColorMode(value)
		return nil
	default:
		return errors.Newf("invalid color mode: %s (must be 'always', 'auto', or 'never')", value)
	}
}

// Type implements the flag.Value interface for ColorMode
func (c *ColorMode) Type() string {
	return "string"
}

type OutputMode string

const (
	OutputModeRich  OutputMode = "rich"  // Icons, colors and spinners
	OutputModePlain OutputMode = "plain" // Plain text, no decoration
	OutputModeJSON  OutputMode = "json"  // Machine readable
)

// String implements the flag.Value interface for OutputMode
func (o *OutputMode) String() string {
	if o == nil || *o == "" {
		return string(OutputModeRich)
	}
	return string(*o)
}

// Set implements the flag.Value interface for OutputMode
func (o *OutputMode) Set(value string) error {
	switch value {
	case "rich", "plain", "json":
		*o = OutputMode(value)
		return nil
	default:
		return errors.Newf("invalid output mode: %s (must be 'rich', 'plain', or 'json')", value)
	}
}

// Type implements the flag.Value interface for OutputMode
func (o *OutputMode) Type() string {
	return "string"
}

// ConfigFlags holds the values of the persistent CLI flags.
type ConfigFlags struct {
	Version       bool
	Color         ColorMode
	Output        OutputMode
	VerboseErrors bool
	Debug         bool
	ConfigFile    string
	Source        string
}
