// Package collab defines the narrow interfaces the property engine calls
// into external collaborators through: kernel capability probing, cgroup
// I/O, network device enumeration, process supervision, daemon
// configuration, and persistence. The engine package imports only this
// package, never a concrete transport or kernel library — concrete
// implementations live in pkg/runtime and pkg/storage, plus small
// adapters in cmd/portod.
package collab

import "context"

// KernelProbe reports which kernel/cgroup features are available, set
// once at daemon start and consulted by each property's Init() hook to
// compute its `supported` flag.
type KernelProbe interface {
	HasAmbientCapabilities() bool
	HasMemoryGuarantee() bool
	HasAnonLimit() bool
	HasDirtyLimit() bool
	HasIoLimit() bool
	HasRechargeOnPgfault() bool
	HasBlkioWeight() bool
	HasBlkioThrottler() bool
	HasHugetlb() bool
	HasPids() bool
	HasTotalMaxRss() bool
	HasSmart() bool
}

// Cgroup is a per-subsystem handle the engine's observable-property
// getters read through; the actual filesystem I/O lives in pkg/runtime.
type Cgroup interface {
	// Usage returns the primary counter for this subsystem (bytes for
	// memory, nanoseconds for cpuacct).
	Usage(ctx context.Context) (uint64, error)
	// Statistics returns every exported counter as name → value.
	Statistics(ctx context.Context) (map[string]uint64, error)
	GetAnonUsage(ctx context.Context) (uint64, error)
	GetHugeUsage(ctx context.Context) (uint64, error)
	// GetIoStat returns the named io counter (bytes or ops) for the
	// given direction ("r"/"w"/"") across disks or the named disk.
	GetIoStat(ctx context.Context, disk, dir string, ops bool) (uint64, error)
	// DiskName resolves a kernel device path to its display name.
	DiskName(path string) (string, error)
	// ResolveDisk resolves a path or display name to a kernel device path.
	ResolveDisk(pathOrName string) (string, error)
	// GetCount returns the process (or, if threads, thread) count.
	GetCount(ctx context.Context, threads bool) (uint64, error)
}

// NetDevice is one network device the Network collaborator knows about.
type NetDevice struct {
	Name    string
	Managed bool
}

// Network is the engine's view of the network-device orchestration
// collaborator: device enumeration, traffic-class assignment, and
// per-device counters consumed by net_class_id and the net_* observables.
type Network interface {
	Devices(ctx context.Context) ([]NetDevice, error)
	AssignClass(ctx context.Context, device string, classID uint32) error
	Counters(ctx context.Context, device string) (rxBytes, txBytes, rxPackets, txPackets, rxDrops, txDrops, overlimits uint64, err error)
}

// ProcessReport is what the Supervisor tells the engine once it has
// started, reaped, or observed a container's entry command.
type ProcessReport struct {
	Pid        int
	VPid       int
	WaitPid    int
	ExitStatus int
	OomKilled  bool
	StartTime  int64 // ms
	DeathTime  int64 // ms
}

// Supervisor starts, stops, and reaps the container's entry command. The
// engine calls it on Start/Stop/Pause/Resume/Kill; the supervisor reports
// back asynchronously by calling into the engine's state-transition API
// (outside the scope of this interface — see pkg/container.Tree).
type Supervisor interface {
	Start(ctx context.Context, name string) (ProcessReport, error)
	Stop(ctx context.Context, name string) error
	Pause(ctx context.Context, name string) error
	Resume(ctx context.Context, name string) error
	Kill(ctx context.Context, name string, signal int) error
}

// Config is the subset of daemon configuration the property engine reads
// directly.
type Config interface {
	RtNice() int
	RtPriority() int
	HighNice() int
	EnableSmart() bool
	MemoryGuaranteeReserve() uint64
	MinMemoryLimit() uint64
	PrivateMax() int
	StdoutLimitMax() uint64
	TotalSystemMemory() uint64
	NumCores() float64
}

// Persist is the persistence collaborator: it durably records
// {property-name, serialized-value} pairs per container and replays them
// on restart through SetFromRestore.
type Persist interface {
	SaveProperty(container, name, value string) error
	LoadProperties(container string) (map[string]string, error)
	DeleteProperty(container, name string) error
	DeleteContainer(container string) error
	ListContainers() ([]string, error)
}
