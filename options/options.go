// Package options holds the per-run settings the CLI threads through
// commands.
package options

import (
	"io"
	"os"

	"github.com/treeline-io/treeline/internal/telemetry"
	"github.com/treeline-io/treeline/pkg/log"
)

// DefaultStoreDirName is the object store directory created under the
// working directory when no store path is configured.
const DefaultStoreDirName = ".treeline/objects"

// Options carries the state of one CLI invocation. The CLI builds it from
// the config file, environment and flags before any command runs; command
// code treats it as read-only.
type Options struct {
	// Logger for all diagnostic output. Never nil.
	Logger log.Logger

	// Writer is the stream for command results.
	Writer io.Writer

	// ErrWriter is the stream for diagnostics.
	ErrWriter io.Writer

	// Telemetry configures the exporters of the run's Telemeter.
	Telemetry *telemetry.Options

	// WorkingDir is the directory being snapshotted and diffed.
	WorkingDir string

	// ConfigPath is the location of the optional config file.
	ConfigPath string

	// StorePath is the on-disk object store directory.
	StorePath string

	// GitDir is the git repository consulted for baseline revisions.
	GitDir string

	// UserIgnoreFile and SystemIgnoreFile are the global ignore levels.
	// The user level takes precedence over the system level.
	UserIgnoreFile   string
	SystemIgnoreFile string

	// Concurrency bounds the diff fan-out and snapshot hashing pool.
	Concurrency int

	// ListIgnored reports excluded paths instead of dropping them.
	ListIgnored bool

	// IgnoreCase folds names during merge and ignore matching.
	IgnoreCase bool

	// JSONOutput renders results as JSON instead of status lines.
	JSONOutput bool

	// DisableColor suppresses ANSI colors in text output.
	DisableColor bool
}

// NewOptions returns options with defaults, writing to the standard
// streams.
func NewOptions() *Options {
	return &Options{
		Logger:    log.Default(),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Telemetry: &telemetry.Options{},
	}
}

// Clone returns a shallow copy sharing the logger and writers.
func (opts *Options) Clone() *Options {
	clone := *opts

	return &clone
}
