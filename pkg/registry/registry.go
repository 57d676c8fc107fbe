// Package registry implements the per-process open-file table keyed by
// (device, inode).
//
// Each entry (AdapterStat) tracks the reference count, open-mode flags, the
// cached size and timestamps, and the bucket backing the file's pages. The
// registry itself only stores and indexes entries; the open/close protocol
// that consults it lives in pkg/frontend.
package registry

import (
	"sync"
	"time"

	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/herrors"
)

// Handle identifies an open file by device and inode, the same identity
// the backend's fstat-equivalent call reports.
type Handle struct {
	Device uint64
	Inode  uint64
}

// AdapterStat is the per-handle metadata entry, named after the upstream
// AdapterStat record it replaces.
type AdapterStat struct {
	// BucketID is the bucket backing this file's pages, referenced by id
	// rather than by pointer to avoid a reference cycle with blobstore.
	BucketID blobstore.BucketID

	// Path is the canonical path this entry was opened under.
	Path string

	// RefCount is the number of times this process has the file open.
	RefCount int32

	// Append records whether the file was opened in append mode; in that
	// mode seek is a no-op returning the current size.
	Append bool

	// DeleteOnClose unlinks the backing file when RefCount reaches 0.
	DeleteOnClose bool

	// Persist controls whether the close protocol flushes and destages
	// this file's dirty blobs (false for scratch/bypass mode).
	Persist bool

	// Size is the cached logical size of the file.
	Size int64

	// Position is the current file pointer.
	Position int64

	AccessTime time.Time
	ModifyTime time.Time
	ChangeTime time.Time
}

// Registry is the per-process open-file table. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byHandle map[Handle]*AdapterStat
	byPath   map[string]map[Handle]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		byHandle: make(map[Handle]*AdapterStat),
		byPath:   make(map[string]map[Handle]struct{}),
	}
}

// Find returns the entry for handle, or ok=false if none exists.
func (r *Registry) Find(handle Handle) (AdapterStat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stat, ok := r.byHandle[handle]
	if !ok {
		return AdapterStat{}, false
	}
	return *stat, true
}

// Create inserts a new entry for handle. It is an error to Create over an
// existing handle; callers must Find first.
func (r *Registry) Create(handle Handle, stat AdapterStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHandle[handle]; exists {
		return herrors.New(herrors.ErrInvalidArgument, "handle already registered").WithPath(stat.Path)
	}

	copied := stat
	r.byHandle[handle] = &copied

	if r.byPath[stat.Path] == nil {
		r.byPath[stat.Path] = make(map[Handle]struct{})
	}
	r.byPath[stat.Path][handle] = struct{}{}
	return nil
}

// Update replaces the entry for handle. Returns herrors.ErrLostHandle if
// the handle is not registered.
func (r *Registry) Update(handle Handle, stat AdapterStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byHandle[handle]
	if !ok {
		return herrors.New(herrors.ErrLostHandle, "handle not registered")
	}

	if existing.Path != stat.Path {
		if set := r.byPath[existing.Path]; set != nil {
			delete(set, handle)
			if len(set) == 0 {
				delete(r.byPath, existing.Path)
			}
		}
		if r.byPath[stat.Path] == nil {
			r.byPath[stat.Path] = make(map[Handle]struct{})
		}
		r.byPath[stat.Path][handle] = struct{}{}
	}

	copied := stat
	r.byHandle[handle] = &copied
	return nil
}

// Delete removes the entry for handle. Deleting an unregistered handle is
// a no-op.
func (r *Registry) Delete(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat, ok := r.byHandle[handle]
	if !ok {
		return
	}
	delete(r.byHandle, handle)

	if set := r.byPath[stat.Path]; set != nil {
		delete(set, handle)
		if len(set) == 0 {
			delete(r.byPath, stat.Path)
		}
	}
}

// FindByPath returns every handle currently open against canonicalPath.
func (r *Registry) FindByPath(canonicalPath string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byPath[canonicalPath]
	handles := make([]Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	return handles
}
