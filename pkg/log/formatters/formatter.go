package formatters

import (
	"strings"

	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/pkg/log"
)

const (
	optNameNoColor     = "no-color"
	optNameNoTimestamp = "no-timestamp"
)

type Formatters []log.Formatter

func (formatters Formatters) Names() []string {
	strs := make([]string, len(formatters))

	for i, formatter := range formatters {
		strs[i] = formatter.Name()
	}

	return strs
}

func (formatters Formatters) String() string {
	return strings.Join(formatters.Names(), ", ")
}

func AllFormatters() Formatters {
	return Formatters{
		NewPrettyFormatter(),
		NewKeyValueFormatter(),
	}
}

// ParseFormat takes a string like "pretty,no-color" and returns a Formatter
// instance with the requested options applied.
func ParseFormat(str string) (log.Formatter, error) {
	var (
		allFormatters = AllFormatters()
		formatter     log.Formatter
		opts          []string
	)

	formatters := make(map[string]log.Formatter, len(allFormatters))
	for _, f := range allFormatters {
		formatters[f.Name()] = f
	}

	for _, part := range strings.Split(str, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		if f, ok := formatters[part]; ok {
			if formatter != nil {
				return nil, errors.Errorf("format %q specifies more than one formatter", str)
			}

			formatter = f

			continue
		}

		opts = append(opts, part)
	}

	if formatter == nil {
		return nil, errors.Errorf("invalid format %q, supported formats: %s", str, allFormatters)
	}

	for _, opt := range opts {
		if err := setOpt(formatter, opt); err != nil {
			return nil, err
		}
	}

	return formatter, nil
}

func setOpt(formatter log.Formatter, name string) error {
	switch formatter := formatter.(type) {
	case *PrettyFormatter:
		switch name {
		case optNameNoColor:
			formatter.DisableColors = true
			return nil
		case optNameNoTimestamp:
			formatter.DisableTimestamp = true
			return nil
		}
	case *KeyValueFormatter:
		if name == optNameNoTimestamp {
			formatter.DisableTimestamp = true
			return nil
		}
	}

	return errors.Errorf("invalid option %q for the format %q", name, formatter.Name())
}
