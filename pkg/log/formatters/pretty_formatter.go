// Package formatters contains the output formatters for the log package.
package formatters

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/pkg/log"
)

const (
	PrettyFormatterName = "pretty"

	defaultPrettyTimestampFormat = "15:04:05.000"
)

var _ log.Formatter = new(PrettyFormatter)

type PrettyFormatter struct {
	// DisableUppercase disables the conversion of the log levels to uppercase.
	DisableUppercase bool

	// DisableTimestamp allows disabling automatic timestamps in output.
	DisableTimestamp bool

	// TimestampFormat to use for display when a full timestamp is printed.
	TimestampFormat string

	// DisableColors forces disabling colors.
	DisableColors bool

	// PrefixStyle is used to assign different styles (colors) to each prefix.
	PrefixStyle PrefixStyle

	// colorScheme to use.
	colorScheme log.CompiledColorScheme

	// Reused for printing fields in key-value format.
	keyValueFormatter *KeyValueFormatter
}

// NewPrettyFormatter returns a new PrettyFormatter instance with default values.
func NewPrettyFormatter() *PrettyFormatter {
	return &PrettyFormatter{
		TimestampFormat:   defaultPrettyTimestampFormat,
		PrefixStyle:       NewPrefixStyle(),
		colorScheme:       log.DefaultColorScheme(),
		keyValueFormatter: &KeyValueFormatter{},
	}
}

// Name implements log.Formatter.
func (formatter *PrettyFormatter) Name() string {
	return PrettyFormatterName
}

// Format implements log.Formatter.
func (formatter *PrettyFormatter) Format(entry *log.Entry) ([]byte, error) {
	buf := entry.Buffer
	if buf == nil {
		buf = new(bytes.Buffer)
	}

	level := fmt.Sprintf("%-6s ", entry.Level)

	if !formatter.DisableUppercase {
		level = strings.ToUpper(level)
	}

	var (
		prefix    string
		timestamp string
		fields    = entry.Fields
	)

	if val, ok := fields[log.FieldKeyPrefix]; ok && val != nil {
		if val, ok := val.(string); ok && val != "" {
			prefix = fmt.Sprintf("[%s] ", val)
		}
	}

	if !formatter.DisableTimestamp && formatter.TimestampFormat != "" {
		timestamp = entry.Time.Format(formatter.TimestampFormat) + " "
	}

	if !formatter.DisableColors {
		level = formatter.colorScheme.LevelColorFunc(entry.Level)(level)
		prefix = formatter.PrefixStyle.ColorFunc(prefix)(prefix)
		timestamp = formatter.colorScheme.ColorFunc(log.TimestampStyle)(timestamp)
	}

	if _, err := fmt.Fprintf(buf, "%s%s%s%s", timestamp, level, prefix, entry.Message); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	keys := fields.Keys(log.FieldKeyPrefix)
	for _, key := range keys {
		if err := formatter.keyValueFormatter.appendKeyValue(buf, key, fields[key], true); err != nil {
			return nil, err
		}
	}

	if err := buf.WriteByte('\n'); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return buf.Bytes(), nil
}
