package container

import (
	"strings"
	"sync"

	"github.com/cuemby/portod/pkg/perr"
	"github.com/cuemby/portod/pkg/security"
)

// NoLimit is the sentinel GetTotalMemLimit and similar aggregations return
// when no ancestor has set a limit at all.
const NoLimit = ^uint64(0)

// Tree is the arena that owns every Container, indexed by Id rather than
// by raw pointer so that Parent is a plain index and tree teardown never
// has to untangle a reference cycle ("Back-references").
//
// The tree is guarded by a single RWMutex : callers take RLock
// for enumeration and read-only property retrieval, Lock for any mutation
// or state transition. Lock acquisition is the caller's responsibility —
// Tree's own methods assume it is already held, and the property
// Dispatcher does not take it either.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[Id]*Container
	byName   map[string]Id
	nextID   Id
	Notifier Notifier
}

// Notifier receives state transitions as they happen, so a subscriber
// (spec.md §1's wire-protocol server, outside this repo) can be told
// without the tree importing any transport. A nil Notifier is valid and
// SetState is then a plain field write.
type Notifier interface {
	NotifyStateChanged(containerName string, from, to State)
}

// SetState transitions c to newState, notifying t.Notifier when set and
// the state actually changes. This is the only path that should mutate
// Container.State outside of construction, so every transition is
// observable the same way. It also flips c.Requirement's started flag:
// leaving Stopped freezes WantControllers, returning to Stopped reopens
// it, per invariant 2.
func (t *Tree) SetState(c *Container, newState State) {
	old := c.State
	c.State = newState
	if old == Stopped && newState != Stopped {
		c.Requirement.Started()
	} else if old != Stopped && newState == Stopped {
		c.Requirement.Stopped()
	}
	if t.Notifier != nil && old != newState {
		t.Notifier.NotifyStateChanged(AbsoluteName(c), old, newState)
	}
}

// NewTree builds an empty tree with the root container pre-created.
func NewTree() *Tree {
	t := &Tree{
		nodes:  make(map[Id]*Container),
		byName: make(map[string]Id),
	}
	root := New(0, "/")
	root.HasParent = false
	t.nodes[0] = root
	t.byName["/"] = 0
	t.nextID = 1
	return t
}

// Lock/Unlock/RLock/RUnlock expose the tree's single lock to callers that
// coordinate multi-container operations (the dispatcher).
func (t *Tree) Lock()    { t.mu.Lock() }
func (t *Tree) Unlock()  { t.mu.Unlock() }
func (t *Tree) RLock()   { t.mu.RLock() }
func (t *Tree) RUnlock() { t.mu.RUnlock() }

// Get returns the container with id, if any. Caller must hold at least
// the read lock.
func (t *Tree) Get(id Id) (*Container, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// All returns every container in the tree, including the root. Callers
// that only want a snapshot for enumeration (metrics collection, listing)
// should hold RLock; order is unspecified.
func (t *Tree) All() []*Container {
	out := make([]*Container, 0, len(t.nodes))
	for _, c := range t.nodes {
		out = append(out, c)
	}
	return out
}

// Lookup resolves an absolute slash-separated name to its container.
func (t *Tree) Lookup(name string) (*Container, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

// Create allocates a new container named name under parent, registers it
// in the arena, and appends it to parent's Children. Caller must hold the
// write lock.
func (t *Tree) Create(parent *Container, leaf string) (*Container, error) {
	full := leaf
	if parent.Name != "/" {
		full = parent.Name + "/" + leaf
	}
	if _, exists := t.byName[full]; exists {
		return nil, perr.InvalidValuef("container %q already exists", full)
	}
	id := t.nextID
	t.nextID++
	c := New(id, full)
	c.ParentId = parent.Id
	c.HasParent = true
	t.nodes[id] = c
	t.byName[full] = id
	parent.Children = append(parent.Children, id)
	t.SanitizeCapabilities(c)
	return c, nil
}

// Remove deletes a leaf container from the arena. Caller must hold the
// write lock and must have already verified the container has no
// children and is Dead or Stopped.
func (t *Tree) Remove(c *Container) {
	if c.HasParent {
		if parent, ok := t.nodes[c.ParentId]; ok {
			for i, id := range parent.Children {
				if id == c.Id {
					parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
					break
				}
			}
		}
	}
	delete(t.nodes, c.Id)
	delete(t.byName, c.Name)
}

// Parent returns c's parent container, if it has one.
func (t *Tree) Parent(c *Container) (*Container, bool) {
	if !c.HasParent {
		return nil, false
	}
	p, ok := t.nodes[c.ParentId]
	return p, ok
}

// Ancestors returns c's ancestors, nearest first, root last.
func (t *Tree) Ancestors(c *Container) []*Container {
	var out []*Container
	cur := c
	for cur.HasParent {
		p, ok := t.nodes[cur.ParentId]
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}

// AbsoluteNamespace returns the nearest ancestor (including c) with a
// non-empty NsName, used by the absolute_namespace observable.
func (t *Tree) AbsoluteNamespace(c *Container) string {
	cur := c
	for {
		if cur.NsName != "" {
			return cur.NsName
		}
		if !cur.HasParent {
			return ""
		}
		p, ok := t.nodes[cur.ParentId]
		if !ok {
			return ""
		}
		cur = p
	}
}

// Subtree returns c and every descendant, pre-order.
func (t *Tree) Subtree(c *Container) []*Container {
	out := []*Container{c}
	for _, id := range c.Children {
		if child, ok := t.nodes[id]; ok {
			out = append(out, t.Subtree(child)...)
		}
	}
	return out
}

// GetTotalMemGuarantee aggregates the subtree rooted at c: each node's
// contribution is the larger of its own explicit guarantee and the sum
// of its children's contributions.
func (t *Tree) GetTotalMemGuarantee(c *Container) uint64 {
	var childSum uint64
	for _, id := range c.Children {
		if child, ok := t.nodes[id]; ok {
			childSum += t.GetTotalMemGuarantee(child)
		}
	}
	if c.MemGuarantee > childSum {
		return c.MemGuarantee
	}
	return childSum
}

// GetTotalMemLimit walks c's ancestors (including c) and returns the
// tightest (smallest, non-zero) MemLimit set anywhere on the path, or
// NoLimit if none is.
func (t *Tree) GetTotalMemLimit(c *Container) uint64 {
	tightest := NoLimit
	cur := c
	for {
		if cur.MemLimit > 0 && cur.MemLimit < tightest {
			tightest = cur.MemLimit
		}
		if !cur.HasParent {
			break
		}
		p, ok := t.nodes[cur.ParentId]
		if !ok {
			break
		}
		cur = p
	}
	return tightest
}

// CheckMemGuarantee validates that raising c's MemGuarantee to newValue
// would keep the whole tree's total guarantee within total-reserve.
// Returns the remaining budget in the error message on failure.
func (t *Tree) CheckMemGuarantee(c *Container, newValue, totalSystemMemory, reserve uint64) error {
	old := c.MemGuarantee
	c.MemGuarantee = newValue
	root := c
	for root.HasParent {
		p, ok := t.nodes[root.ParentId]
		if !ok {
			break
		}
		root = p
	}
	used := t.GetTotalMemGuarantee(root)
	c.MemGuarantee = old

	budget := int64(totalSystemMemory) - int64(reserve)
	if budget < 0 {
		budget = 0
	}
	if used > uint64(budget) {
		remaining := int64(totalSystemMemory) - int64(reserve) - int64(used-newValue)
		if remaining < 0 {
			remaining = 0
		}
		return perr.ResourceNotAvailablef("memory guarantee exceeds budget, %d bytes remaining", remaining)
	}
	return nil
}

// ClampCpuLimit enforces invariant 6: newLimit must not exceed the
// parent's CpuLimit unless the setter is a superuser. A parent CpuLimit
// of 0 means unlimited and imposes no clamp.
func (t *Tree) ClampCpuLimit(c *Container, newLimit float64, superuser bool) error {
	if superuser {
		return nil
	}
	parent, ok := t.Parent(c)
	if !ok || parent.CpuLimit <= 0 {
		return nil
	}
	if newLimit > parent.CpuLimit {
		return perr.InvalidValuef("cpu_limit %.3f exceeds parent limit %.3f", newLimit, parent.CpuLimit)
	}
	return nil
}

// ClampAccessLevel enforces invariant 7: a non-superuser may not set
// c.AccessLevel above the strictest (lowest) level found among c's
// ancestors once that ancestor is ChildOnly or below.
func (t *Tree) ClampAccessLevel(c *Container, want AccessLevel, superuser bool) (AccessLevel, error) {
	if superuser {
		return want, nil
	}
	ceiling := AccessNormal
	for _, a := range t.Ancestors(c) {
		if a.AccessLevel < ceiling {
			ceiling = a.AccessLevel
		}
	}
	if want > ceiling {
		return ceiling, nil
	}
	return want, nil
}

// SanitizeCapabilities recomputes CapAllowed from VirtMode, OwnerCred, and
// the intersection of ancestor CapLimit masks, then narrows CapLimit and
// CapAmbient down to CapAllowed if they now exceed it. Called
// after changes to owner_user, virt_mode, or capabilities.
func (t *Tree) SanitizeCapabilities(c *Container) {
	base := security.AppModeCapabilities
	if c.VirtMode == VirtOS {
		base = security.OsModeCapabilities
	}
	if c.OwnerCred.IsRootUser() {
		c.CapAllowed = base
	} else {
		allowed := base
		for _, a := range t.Ancestors(c) {
			if a.OwnerCred.IsRootUser() {
				continue
			}
			allowed = allowed.And(a.CapLimit)
		}
		c.CapAllowed = allowed
	}

	if !c.CapLimit.SubsetOf(c.CapAllowed) {
		c.CapLimit = c.CapLimit.And(c.CapAllowed)
	}
	if !c.CapAmbient.SubsetOf(c.CapAllowed) {
		c.CapAmbient = c.CapAmbient.And(c.CapAllowed)
	}
}

// AbsoluteName returns c.Name as stored; container names are already
// absolute slash-separated paths, this helper exists for readability at
// call sites that format the absolute_name observable.
func AbsoluteName(c *Container) string {
	if c.Name == "" {
		return "/"
	}
	return c.Name
}

// Leaf returns the last path component of c's name.
func Leaf(c *Container) string {
	idx := strings.LastIndexByte(c.Name, '/')
	if idx < 0 {
		return c.Name
	}
	return c.Name[idx+1:]
}
