// Package container holds the in-memory container record, its tree/arena,
// and the hierarchy invariants that aggregate or clamp values across that
// tree. It owns no kernel or persistence I/O; pkg/property drives it
// through the codec and collaborator interfaces defined elsewhere.
package container

import (
	"github.com/cuemby/portod/pkg/controller"
	"github.com/cuemby/portod/pkg/security"
)

// Id identifies a container within a Tree's arena. The root container
// (name "/") always has Id 0.
type Id uint64

// BindMount is one source/dest/access-mode entry of the `bind` property.
type BindMount struct {
	Source   string
	Dest     string
	ReadOnly bool
}

// Container is the complete in-memory record for one node of the managed
// tree. A Container is only ever mutated through a Tree's write lock;
// callers never hold a *Container across a lock release.
type Container struct {
	// Identity
	Id        Id
	Name      string
	ParentId  Id
	HasParent bool
	Children  []Id

	// State
	State            State
	RealCreationTime int64
	StartTime        int64
	DeathTime        int64
	AgingTime        int64
	ExitStatus       int
	OomKilled        bool

	// Identity & permission
	OwnerCred   security.Cred
	TaskCred    security.Cred
	AccessLevel AccessLevel
	CapLimit    security.Capabilities
	CapAmbient  security.Capabilities
	CapAllowed  security.Capabilities
	VirtMode    VirtMode

	// Resources
	MemLimit      uint64
	MemGuarantee  uint64
	AnonMemLimit  uint64
	DirtyMemLimit uint64
	HugetlbLimit  uint64
	CpuLimit      float64
	CpuGuarantee  float64
	CpuPolicy     CpuPolicy
	SchedPolicy   SchedPolicy
	SchedPrio     int
	SchedNice     int
	CpuSet        string
	IoPolicy      IoPolicy
	IoBpsLimit    map[string]uint64
	IoOpsLimit    map[string]uint64
	ThreadLimit   uint64
	Ulimit        map[string]string

	// Isolation
	Root        string
	RootRo      bool
	Cwd         string
	Umask       uint32
	Hostname    string
	BindDns     bool
	Isolate     bool
	BindMounts  []BindMount
	EnvCfg      []string // ordered NAME=value entries, order preserved
	Devices     []string // raw device tuples, parsed on demand
	ResolvConf  string
	Command     string
	Stdin       string
	Stdout      string
	Stderr      string
	StdoutLimit uint64

	// Network
	NetProp      []string
	IpList       map[string]string
	DefaultGw    map[string]string
	NetGuarantee map[string]uint64
	NetLimit     map[string]uint64
	NetPriority  map[string]uint64
	ContainerTC  uint32

	// Control
	Requirement  controller.Requirement
	ToRespawn    bool
	MaxRespawns  int
	RespawnCount int
	IsWeak       bool
	OomIsFatal   bool
	Private      string
	NsName       string

	// Runtime ids, filled in by the Supervisor collaborator
	TaskPid      int
	TaskVPid     int
	WaitTaskPid  int
	SeizeTaskPid int
	LoopDev      int

	// Provenance
	ExplicitlySet ExplicitlySet
}

// New constructs a container record with the defaults a freshly created
// (not yet restored) node starts with.
func New(id Id, name string) *Container {
	return &Container{
		Id:          id,
		Name:        name,
		State:       Stopped,
		AccessLevel: AccessNormal,
		VirtMode:    VirtApp,
		CpuPolicy:   CpuPolicyNormal,
		IoPolicy:    IoPolicyNormal,
		MaxRespawns: -1,
		OomIsFatal:  true,
	}
}

// SetProp marks id explicitly set.
func (c *Container) SetProp(id PropertyID) {
	c.ExplicitlySet.Set(id)
}

// ClearProp undoes SetProp; used only when re-creating a container under
// the same name (invariant 10).
func (c *Container) ClearProp(id PropertyID) {
	c.ExplicitlySet.Clear(id)
}

// HasProp reports whether id was ever explicitly set.
func (c *Container) HasProp(id PropertyID) bool {
	return c.ExplicitlySet.Has(id)
}
