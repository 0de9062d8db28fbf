package diff

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/treeline-io/treeline/internal/cas"
	"github.com/treeline-io/treeline/internal/errors"
)

// Status classifies one reported path.
type Status int

const (
	StatusAdded Status = iota
	StatusRemoved
	StatusModified
	StatusIgnored
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusRemoved:
		return "removed"
	case StatusModified:
		return "modified"
	case StatusIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Symbol returns the one-letter marker used in listings.
func (s Status) Symbol() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusRemoved:
		return "R"
	case StatusModified:
		return "M"
	case StatusIgnored:
		return "I"
	default:
		return "?"
	}
}

// Event is one path-level diff result.
type Event struct {
	Path   string
	Status Status
	Kind   cas.EntryKind
}

// PathError is a subtree failure captured during the walk.
type PathError struct {
	Path string
	Err  error
}

type eventKey struct {
	path   string
	status Status
}

// Collector is a Callback that accumulates events and errors from
// concurrently running subtree walks for later sorted listing. A path can
// carry two events when its kind flipped between tree and file-like, one
// Added and one Removed, so events are keyed by path and status.
type Collector struct {
	events *xsync.MapOf[eventKey, cas.EntryKind]
	errs   *xsync.MapOf[string, error]
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		events: xsync.NewMapOf[eventKey, cas.EntryKind](),
		errs:   xsync.NewMapOf[string, error](),
	}
}

// AddedPath implements Callback.
func (c *Collector) AddedPath(path string, kind cas.EntryKind) {
	c.record(path, StatusAdded, kind)
}

// RemovedPath implements Callback.
func (c *Collector) RemovedPath(path string, kind cas.EntryKind) {
	c.record(path, StatusRemoved, kind)
}

// ModifiedPath implements Callback.
func (c *Collector) ModifiedPath(path string, kind cas.EntryKind) {
	c.record(path, StatusModified, kind)
}

// IgnoredPath implements Callback.
func (c *Collector) IgnoredPath(path string, kind cas.EntryKind) {
	c.record(path, StatusIgnored, kind)
}

// DiffError implements Callback.
func (c *Collector) DiffError(path string, err error) {
	c.errs.Store(path, err)
}

func (c *Collector) record(path string, status Status, kind cas.EntryKind) {
	c.events.Store(eventKey{path: path, status: status}, kind)
}

// Events returns all recorded events sorted by path, then status.
func (c *Collector) Events() []Event {
	events := make([]Event, 0, c.events.Size())

	c.events.Range(func(key eventKey, kind cas.EntryKind) bool {
		events = append(events, Event{Path: key.path, Status: key.status, Kind: kind})

		return true
	})

	sort.Slice(events, func(i, j int) bool {
		if events[i].Path != events[j].Path {
			return events[i].Path < events[j].Path
		}

		return events[i].Status < events[j].Status
	})

	return events
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	return c.events.Size()
}

// Errors returns captured subtree failures sorted by path.
func (c *Collector) Errors() []PathError {
	pathErrs := make([]PathError, 0, c.errs.Size())

	c.errs.Range(func(path string, err error) bool {
		pathErrs = append(pathErrs, PathError{Path: path, Err: err})

		return true
	})

	sort.Slice(pathErrs, func(i, j int) bool {
		return pathErrs[i].Path < pathErrs[j].Path
	})

	return pathErrs
}

// Err merges all captured failures into a single error, or nil when the
// walk completed cleanly.
func (c *Collector) Err() error {
	var merged *errors.MultiError

	for _, pathErr := range c.Errors() {
		merged = merged.Append(errors.Errorf("%s: %w", displayPath(pathErr.Path), pathErr.Err))
	}

	return merged.ErrorOrNil()
}

// displayPath renders the walk root as "." in messages.
func displayPath(path string) string {
	if path == "" {
		return "."
	}

	return path
}
