package property

import (
	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/perr"
)

// scalar is the common shape for properties whose Get/Set logic is a
// closure over *Ctx: most properties need nothing beyond parse, a
// handful of checks, and a commit, so a one-off struct per property
// would be pure boilerplate. Every property is a *scalar; those with
// bespoke indexing (env, the map-valued limits) set the getI/setI
// closures directly instead of defining a type of their own.
type scalar struct {
	BaseHandler
	get  func(ctx *Ctx) (string, error)
	set  func(ctx *Ctx, value string) error
	getI func(ctx *Ctx, index string) (string, error)
	setI func(ctx *Ctx, index, value string) error
	save func(ctx *Ctx) (string, error)
	restore func(ctx *Ctx, value string) error
}

func (h *scalar) Get(ctx *Ctx) (string, error) { return h.get(ctx) }

func (h *scalar) Set(ctx *Ctx, value string) error {
	if h.set == nil {
		return perr.InvalidValuef("property %s is read-only", h.Name())
	}
	return h.set(ctx, value)
}

func (h *scalar) GetIndexed(ctx *Ctx, index string) (string, error) {
	if h.getI != nil {
		return h.getI(ctx, index)
	}
	return h.BaseHandler.GetIndexed(ctx, index)
}

func (h *scalar) SetIndexed(ctx *Ctx, index, value string) error {
	if h.setI != nil {
		return h.setI(ctx, index, value)
	}
	return h.BaseHandler.SetIndexed(ctx, index, value)
}

func (h *scalar) GetToSave(ctx *Ctx) (string, error) {
	if h.save != nil {
		return h.save(ctx)
	}
	return h.get(ctx)
}

func (h *scalar) SetFromRestore(ctx *Ctx, value string) error {
	if h.restore != nil {
		return h.restore(ctx, value)
	}
	trusted := *ctx
	trusted.Superuser = true
	return h.set(&trusted, value)
}

// RequireKernel installs the probe predicate that Registry.Init consults
// to compute Supported, for properties whose kernel feature isn't always
// present. Returns h for chaining at the registration call site.
func (h *scalar) RequireKernel(f func(collab.KernelProbe) bool) *scalar {
	h.whenSupported(f)
	return h
}

// newScalar builds a read/write property backed by get/set closures.
func newScalar(name string, id container.PropertyID, desc string, gate container.Gate, get func(*Ctx) (string, error), set func(*Ctx, string) error) *scalar {
	return &scalar{BaseHandler: newBase(name, id, desc, gate), get: get, set: set}
}

// newObservable builds a read-only, non-persistable property.
func newObservable(name, desc string, gate container.Gate, get func(*Ctx) (string, error)) *scalar {
	h := &scalar{BaseHandler: newBase(name, container.None, desc, gate), get: get}
	h.markReadOnly()
	return h
}

// newHiddenRestore builds a persistence-only property: hidden from
// enumeration, read-only to ordinary Set, with its own restore logic.
func newHiddenRestore(name string, id container.PropertyID, desc string, get func(*Ctx) (string, error), restore func(*Ctx, string) error) *scalar {
	h := &scalar{BaseHandler: newBase(name, id, desc, container.GateAlive), get: get, restore: restore}
	h.markReadOnly()
	h.markHidden()
	return h
}

// newReadOnlyPersisted builds a property that is visible and persisted
// under its own id, but only ever written by the supervisor on restore
// (state, exit_status, oom_killed) rather than by an ordinary client Set.
func newReadOnlyPersisted(name string, id container.PropertyID, desc string, gate container.Gate, get func(*Ctx) (string, error), restore func(*Ctx, string) error) *scalar {
	h := &scalar{BaseHandler: newBase(name, id, desc, gate), get: get, restore: restore}
	h.markReadOnly()
	return h
}

// uint64MapIndexed builds getI/setI closures for a map[string]uint64-valued
// property reached through field. Setting an empty value removes the key
// (invariant 5); getting an absent key fails InvalidProperty. beforeSet, if
// non-nil, runs before a non-removing write — used by callers that must
// introduce a controller dependency or validate the value per key.
func uint64MapIndexed(field func(*container.Container) *map[string]uint64, beforeSet func(ctx *Ctx, key string, val uint64) error) (
	func(*Ctx, string) (string, error),
	func(*Ctx, string, string) error,
) {
	getI := func(ctx *Ctx, index string) (string, error) {
		v, ok := (*field(ctx.C))[index]
		if !ok {
			return "", perr.InvalidPropertyf("no value for key %q", index)
		}
		return codec.FormatSize(v), nil
	}
	setI := func(ctx *Ctx, index, value string) error {
		m := field(ctx.C)
		if value == "" {
			delete(*m, index)
			return nil
		}
		v, err := codec.ParseSize(value)
		if err != nil {
			return err
		}
		if beforeSet != nil {
			if err := beforeSet(ctx, index, v); err != nil {
				return err
			}
		}
		if *m == nil {
			*m = make(map[string]uint64)
		}
		(*m)[index] = v
		return nil
	}
	return getI, setI
}

// stringMapIndexed builds getI/setI closures for a map[string]string-valued
// property reached through field, with the same empty-value-removes-the-key
// semantics as uint64MapIndexed.
func stringMapIndexed(field func(*container.Container) *map[string]string) (
	func(*Ctx, string) (string, error),
	func(*Ctx, string, string) error,
) {
	getI := func(ctx *Ctx, index string) (string, error) {
		v, ok := (*field(ctx.C))[index]
		if !ok {
			return "", perr.InvalidPropertyf("no value for key %q", index)
		}
		return v, nil
	}
	setI := func(ctx *Ctx, index, value string) error {
		m := field(ctx.C)
		if value == "" {
			delete(*m, index)
			return nil
		}
		if *m == nil {
			*m = make(map[string]string)
		}
		(*m)[index] = value
		return nil
	}
	return getI, setI
}
