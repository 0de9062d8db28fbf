package log

import (
	"github.com/sirupsen/logrus"
)

// Formatter is used to implement a custom Formatter.
type Formatter interface {
	// Name returns the name the formatter is selected by.
	Name() string

	// Format renders a single log entry.
	Format(entry *Entry) ([]byte, error)
}

// Entry is the final logging entry.
type Entry struct {
	*logrus.Entry
	Level  Level
	Fields Fields
}

// fromLogrusFormatter converts calls from the logrus.Formatter interface to our log.Formatter interface.
type fromLogrusFormatter struct {
	Formatter
}

func (f *fromLogrusFormatter) Format(parent *logrus.Entry) ([]byte, error) {
	entry := &Entry{
		Entry:  parent,
		Level:  FromLogrusLevel(parent.Level),
		Fields: Fields(parent.Data),
	}

	return f.Formatter.Format(entry)
}
