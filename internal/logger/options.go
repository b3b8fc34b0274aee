package logger

import (
	"io"
	"log/slog"
)

// Format selects the record encoding.
type Format int

const (
	// FormatText writes slog key=value records.
	FormatText Format = iota
	// FormatJSON writes one JSON object per record.
	FormatJSON
	// FormatPretty writes colorized records for terminals.
	FormatPretty
)

// Option configures New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithFormat sets the record encoding. The default is FormatText.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithOutput sends records to every w. Without it records go to stderr.
func WithOutput(w ...io.Writer) Option {
	return func(c *config) { c.writers = w }
}

// WithSource reports the calling file and line.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}

// WithComponent tags every record with component=name.
func WithComponent(name string) Option {
	return func(c *config) { c.component = name }
}
