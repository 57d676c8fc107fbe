// Package hermes wires the buffering core's components into a single
// process-wide object, replacing the upstream's global metadata manager,
// buffer pool, and real-API table with one explicitly constructed and
// passed-around struct.
package hermes

import (
	"fmt"

	"github.com/hermesio/hermes/internal/logger"
	"github.com/hermesio/hermes/pkg/backend"
	"github.com/hermesio/hermes/pkg/backend/posixfs"
	"github.com/hermesio/hermes/pkg/blobstore"
	"github.com/hermesio/hermes/pkg/config"
	"github.com/hermesio/hermes/pkg/flusher"
	"github.com/hermesio/hermes/pkg/ioengine"
	"github.com/hermesio/hermes/pkg/metrics"
	"github.com/hermesio/hermes/pkg/registry"
	"github.com/hermesio/hermes/pkg/scope"
)

// Context bundles every component a pkg/frontend.Session needs: the scope
// filter, the open-file registry, the blob store, the I/O engine, and the
// flush pipeline, all built from one Config. There is exactly one Context
// per process; everything else is constructed from it explicitly rather
// than reached for as a package-level global.
type Context struct {
	Config *config.Config

	Scope    *scope.Filter
	Registry *registry.Registry
	Store    blobstore.Store
	Backend  backend.Client
	Engine   *ioengine.Engine
	Flusher  flusher.Flusher

	ioMetrics   metrics.IOEngineMetrics
	flushMetrics metrics.FlusherMetrics
}

// New builds a fully wired Context from cfg.
//
// Wiring order mirrors the upstream control flow: scope filter first
// (so path tracking decisions never depend on partially built state), then
// the registry and blob store, then the I/O engine over both, then the
// flush pipeline (synchronous by default, asynchronous when cfg.AsyncFlush
// is set), grounded on InitializeRegistry's step-by-step assembly.
func New(cfg *config.Config) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("hermes: nil configuration")
	}
	if len(cfg.MountPoints) == 0 {
		return nil, fmt.Errorf("hermes: no mount points configured")
	}

	logger.Info("wiring hermes context", "adapter_mode", cfg.AdapterMode)

	sc := scope.New(cfg.ParseAdapterMode())
	sc.SetInclusions(cfg.PathInclusions)
	sc.SetExclusions(cfg.PathExclusions)
	sc.SetFlushExclusions(cfg.FlushExclusions)

	reg := registry.New()
	store := blobstore.NewMemStore(uint64(cfg.BufferPoolCapacity))
	client := posixfs.New()

	eng := ioengine.New(store, client, sc)
	eng.WriteOnlyHint = cfg.WriteOnlyHint

	syncFlusher := flusher.NewSyncFlusher(store, client, sc, int64(cfg.PageSize))

	var fl flusher.Flusher = syncFlusher
	if cfg.AsyncFlush {
		fl = flusher.NewAsyncFlusher(syncFlusher)
	}

	return &Context{
		Config:       cfg,
		Scope:        sc,
		Registry:     reg,
		Store:        store,
		Backend:      client,
		Engine:       eng,
		Flusher:      fl,
		ioMetrics:    metrics.NewIOEngineMetrics(),
		flushMetrics: metrics.NewFlusherMetrics(),
	}, nil
}

// IOMetrics returns the Context's IOEngineMetrics, nil if metrics are
// disabled.
func (c *Context) IOMetrics() metrics.IOEngineMetrics { return c.ioMetrics }

// FlushMetrics returns the Context's FlusherMetrics, nil if metrics are
// disabled.
func (c *Context) FlushMetrics() metrics.FlusherMetrics { return c.flushMetrics }

// Shutdown marks the scope filter as shut down -- once set, every
// subsequent call is routed straight to the backend -- and waits for any
// in-flight background flush to drain.
func (c *Context) Shutdown() error {
	c.Scope.Shutdown()
	return c.Flusher.Close()
}
