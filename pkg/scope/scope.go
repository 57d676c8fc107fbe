// Package scope decides, per call, whether a path is under Hermes's
// management.
//
// A Filter holds three prefix sets (inclusions, exclusions, and
// flush-exclusions) plus a hard-coded list of system paths that are never
// tracked regardless of configuration.
package scope

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// AdapterMode selects how a tracked path's I/O is handled.
type AdapterMode int

const (
	// ModeDefault buffers writes in Hermes and destages them on close/sync.
	ModeDefault AdapterMode = iota

	// ModeBypass forwards everything to the backend, unless the path
	// appears in the per-path override list.
	ModeBypass

	// ModeScratch buffers in Hermes but never flushes; data is discarded
	// on close.
	ModeScratch

	// ModeWorkflow buffers until an explicit stage-out operation.
	ModeWorkflow
)

// systemPrefixes are never tracked, regardless of user configuration.
var systemPrefixes = []string{
	"/bin/",
	"/dev/",
	"/proc/",
	"/sys/",
	"/usr/",
	"/var/",
}

// Filter implements the scope algorithm. The zero value is not usable;
// construct with New.
type Filter struct {
	mu sync.RWMutex

	inclusions      []string
	exclusions      []string
	flushExclusions []string
	overrides       map[string]struct{}

	mode AdapterMode

	shutdown atomic.Bool
}

// New constructs a Filter in the given mode with no prefixes configured.
func New(mode AdapterMode) *Filter {
	return &Filter{
		overrides: make(map[string]struct{}),
		mode:      mode,
	}
}

// SetInclusions replaces the inclusion prefix set.
func (f *Filter) SetInclusions(prefixes []string) { f.setList(&f.inclusions, prefixes) }

// SetExclusions replaces the user exclusion prefix set.
func (f *Filter) SetExclusions(prefixes []string) { f.setList(&f.exclusions, prefixes) }

// SetFlushExclusions replaces the flush-exclusion prefix set.
func (f *Filter) SetFlushExclusions(prefixes []string) { f.setList(&f.flushExclusions, prefixes) }

func (f *Filter) setList(dst *[]string, prefixes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*dst = append([]string(nil), prefixes...)
}

// AddFlushExclusion adds path to the flush-exclusion set, used by the
// flusher and by gap reads to suppress re-entrant tracking of a path
// already undergoing a backend operation.
func (f *Filter) AddFlushExclusion(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushExclusions = append(f.flushExclusions, path)
}

// RemoveFlushExclusion removes one occurrence of path from the
// flush-exclusion set.
func (f *Filter) RemoveFlushExclusion(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.flushExclusions {
		if p == path {
			f.flushExclusions = append(f.flushExclusions[:i], f.flushExclusions[i+1:]...)
			return
		}
	}
}

// AddOverride marks path as tracked even in bypass mode.
func (f *Filter) AddOverride(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[path] = struct{}{}
}

// Shutdown marks the process as shutting down; Tracked returns false for
// every path from this point on.
func (f *Filter) Shutdown() { f.shutdown.Store(true) }

// IsShutdown reports whether Shutdown has been called.
func (f *Filter) IsShutdown() bool { return f.shutdown.Load() }

// Tracked implements the scope filter's step-by-step tracking algorithm.
func (f *Filter) Tracked(path string) bool {
	if f.shutdown.Load() {
		return false
	}

	canonical := Canonicalize(path)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if hasPrefix(canonical, f.flushExclusions) {
		return false
	}
	if len(f.inclusions) > 0 && hasPrefix(canonical, f.inclusions) {
		return true
	}
	if hasPrefix(canonical, systemPrefixes) {
		return false
	}
	if hasPrefix(canonical, f.exclusions) {
		return false
	}

	switch f.mode {
	case ModeBypass:
		_, ok := f.overrides[canonical]
		return ok
	default: // ModeDefault, ModeScratch, ModeWorkflow
		return true
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Canonicalize produces the weakly-canonical absolute form of path:
// relative paths are resolved against the current working directory, then
// separators are normalized, "." components are dropped, "X/.." pairs
// collapse (without crossing the root), and a trailing ".." keeps no
// separator after it. An empty path yields ".".
//
// Two spellings of the same file (a relative path and its absolute form,
// or the same relative path from different working directories) must
// canonicalize to the same bucket key; filepath.Clean alone only normalizes
// separators and dot segments, it never makes a path absolute, so
// filepath.Abs does the resolution and Clean (which Abs already applies)
// finishes the job.
func Canonicalize(path string) string {
	if path == "" {
		return "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		// filepath.Abs only fails if os.Getwd fails; fall back to the
		// cleaned relative form rather than losing the path entirely.
		abs = filepath.Clean(path)
	}
	if abs == "" {
		return "."
	}
	return abs
}
