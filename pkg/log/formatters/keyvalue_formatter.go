package formatters

import (
	"bytes"
	"fmt"
	"time"

	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/pkg/log"
)

const (
	KeyValueFormatterName = "key-value"

	defaultKeyValueTimestampFormat = time.RFC3339
)

var _ log.Formatter = new(KeyValueFormatter)

type KeyValueFormatter struct {
	// DisableTimestamp allows disabling automatic timestamps in output.
	DisableTimestamp bool

	// TimestampFormat to use for display when a full timestamp is printed.
	TimestampFormat string

	// QuoteEmptyFields wraps empty fields in quotes if true.
	QuoteEmptyFields bool
}

// NewKeyValueFormatter returns a new KeyValueFormatter instance with default values.
func NewKeyValueFormatter() *KeyValueFormatter {
	return &KeyValueFormatter{
		TimestampFormat: defaultKeyValueTimestampFormat,
	}
}

// Name implements log.Formatter.
func (formatter *KeyValueFormatter) Name() string {
	return KeyValueFormatterName
}

// Format implements log.Formatter.
func (formatter *KeyValueFormatter) Format(entry *log.Entry) ([]byte, error) {
	buf := entry.Buffer
	if buf == nil {
		buf = new(bytes.Buffer)
	}

	fields := entry.Fields

	if !formatter.DisableTimestamp && formatter.TimestampFormat != "" {
		if err := formatter.appendKeyValue(buf, log.FieldKeyTime, entry.Time.Format(formatter.TimestampFormat), false); err != nil {
			return nil, err
		}
	}

	if err := formatter.appendKeyValue(buf, log.FieldKeyLevel, entry.Level, buf.Len() > 0); err != nil {
		return nil, err
	}

	if val, ok := fields[log.FieldKeyPrefix]; ok && val != nil {
		if val, ok := val.(string); ok && val != "" {
			if err := formatter.appendKeyValue(buf, log.FieldKeyPrefix, val, true); err != nil {
				return nil, err
			}
		}
	}

	if entry.Message != "" {
		if err := formatter.appendKeyValue(buf, log.FieldKeyMsg, entry.Message, true); err != nil {
			return nil, err
		}
	}

	keys := fields.Keys(log.FieldKeyPrefix)
	for _, key := range keys {
		if err := formatter.appendKeyValue(buf, key, fields[key], true); err != nil {
			return nil, err
		}
	}

	if err := buf.WriteByte('\n'); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return buf.Bytes(), nil
}

func (formatter *KeyValueFormatter) appendKeyValue(buf *bytes.Buffer, key string, value interface{}, appendSpace bool) error {
	keyFmt := "%s="
	if appendSpace {
		keyFmt = " " + keyFmt
	}

	if _, err := fmt.Fprintf(buf, keyFmt, key); err != nil {
		return errors.WithStackTrace(err)
	}

	return formatter.appendValue(buf, value)
}

func (formatter *KeyValueFormatter) appendValue(buf *bytes.Buffer, value interface{}) error {
	var str string

	switch value := value.(type) {
	case string:
		str = value
	case error:
		str = value.Error()
	default:
		if _, err := fmt.Fprint(buf, value); err != nil {
			return errors.WithStackTrace(err)
		}

		return nil
	}

	valueFmt := "%v"
	if formatter.needsQuoting(str) {
		valueFmt = `"%v"`
	}

	if _, err := fmt.Fprintf(buf, valueFmt, str); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

func (formatter *KeyValueFormatter) needsQuoting(text string) bool {
	if formatter.QuoteEmptyFields && len(text) == 0 {
		return true
	}

	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.' || ch == '_' || ch == '/') {
			return true
		}
	}

	return false
}
