package property

import (
	"sort"

	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/perr"
)

// Handler is the uniform contract every property implements: a
// descriptor plus the scalar/indexed get/set/persistence operations.
// Concrete handlers embed BaseHandler and override only the methods
// their property actually needs, mirroring a single virtual-dispatch
// contract with per-property overrides.
type Handler interface {
	Name() string
	ID() container.PropertyID
	ReadOnly() bool
	Hidden() bool
	Gate() container.Gate

	Init(probe collab.KernelProbe)
	Supported() bool

	Get(ctx *Ctx) (string, error)
	Set(ctx *Ctx, value string) error
	GetIndexed(ctx *Ctx, index string) (string, error)
	SetIndexed(ctx *Ctx, index, value string) error
}

// Saver is implemented by handlers whose persisted form may differ from
// their live Get. scalar implements it and falls back to its get closure
// when it has no save closure; handlers that do not implement Saver are
// saved via a plain Get.
type Saver interface {
	GetToSave(ctx *Ctx) (string, error)
}

// Restorer is implemented by handlers whose restore-time write differs
// from an ordinary Set (e.g. raw_root_pid unpacks a "task;vtask;wait"
// triple into three fields). Handlers without special restore logic are
// restored via Set with the acting client treated as superuser, since
// restore is trusted input that must bypass ancestor/permission clamps.
type Restorer interface {
	SetFromRestore(ctx *Ctx, value string) error
}

// BaseHandler supplies the descriptor bookkeeping and the "not
// indexable" default every scalar property shares. Embedders override
// Get/Set and, where relevant, GetIndexed/SetIndexed/Saver/Restorer.
type BaseHandler struct {
	name     string
	id       container.PropertyID
	desc     string
	readonly bool
	hidden   bool
	gate     container.Gate

	supported   bool
	initSupport func(collab.KernelProbe) bool
}

func newBase(name string, id container.PropertyID, desc string, gate container.Gate) BaseHandler {
	return BaseHandler{name: name, id: id, desc: desc, gate: gate, supported: true}
}

func (b *BaseHandler) Name() string             { return b.name }
func (b *BaseHandler) ID() container.PropertyID { return b.id }
func (b *BaseHandler) ReadOnly() bool           { return b.readonly }
func (b *BaseHandler) Hidden() bool             { return b.hidden }
func (b *BaseHandler) Gate() container.Gate     { return b.gate }
func (b *BaseHandler) Supported() bool          { return b.supported }
func (b *BaseHandler) Description() string      { return b.desc }

func (b *BaseHandler) markReadOnly() { b.readonly = true }
func (b *BaseHandler) markHidden()   { b.hidden = true }

// whenSupported installs the probe predicate consulted by Init.
func (b *BaseHandler) whenSupported(f func(collab.KernelProbe) bool) {
	b.initSupport = f
}

func (b *BaseHandler) Init(probe collab.KernelProbe) {
	if b.initSupport != nil {
		b.supported = b.initSupport(probe)
	}
}

func (b *BaseHandler) GetIndexed(ctx *Ctx, index string) (string, error) {
	return "", perr.InvalidPropertyf("property %s is not indexable", b.name)
}

func (b *BaseHandler) SetIndexed(ctx *Ctx, index, value string) error {
	return perr.InvalidPropertyf("property %s is not indexable", b.name)
}

// Registry holds every registered handler, name-sorted for deterministic
// enumeration, and is immutable once Init has run at daemon start.
type Registry struct {
	byName map[string]Handler
	sorted []Handler
}

// NewRegistry builds a Registry from the full handler set and immediately
// sorts it by name; Init must still be called once collaborators are
// available.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{byName: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.byName[h.Name()] = h
	}
	r.sorted = make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		r.sorted = append(r.sorted, h)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].Name() < r.sorted[j].Name() })
	return r
}

// Init probes kernel support for every handler. Called once at daemon
// start, before any request is dispatched.
func (r *Registry) Init(probe collab.KernelProbe) {
	for _, h := range r.sorted {
		h.Init(probe)
	}
}

// Lookup finds a handler by name, usable even for hidden properties.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// List returns every non-hidden handler, name-sorted, for enumeration.
func (r *Registry) List() []Handler {
	out := make([]Handler, 0, len(r.sorted))
	for _, h := range r.sorted {
		if !h.Hidden() {
			out = append(out, h)
		}
	}
	return out
}
