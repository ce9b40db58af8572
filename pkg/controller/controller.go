// Package controller implements the cgroup controller requirement model:
// a bitmask of which cgroup subsystems a container's properties have
// demanded, and the single choke point (WantControllers) through which
// new controller dependencies may be introduced.
package controller

import (
	"strings"

	"github.com/cuemby/portod/pkg/perr"
)

// Mask is a bitmask over the cgroup controllers named below, mirroring
// containerd/cgroups/v3's subsystem.Name enum (other_examples'
// containerd-cgroups subsystem.go) one bit per controller.
type Mask uint32

const (
	Devices Mask = 1 << iota
	Hugetlb
	Freezer
	Pids
	NetCLS
	NetPrio
	PerfEvent
	Cpuset
	Cpu
	Cpuacct
	Memory
	Blkio
)

var names = []struct {
	mask Mask
	name string
}{
	{Devices, "devices"},
	{Hugetlb, "hugetlb"},
	{Freezer, "freezer"},
	{Pids, "pids"},
	{NetCLS, "net_cls"},
	{NetPrio, "net_prio"},
	{PerfEvent, "perf_event"},
	{Cpuset, "cpuset"},
	{Cpu, "cpu"},
	{Cpuacct, "cpuacct"},
	{Memory, "memory"},
	{Blkio, "blkio"},
}

// String lists the controller names set in m, comma-separated.
func (m Mask) String() string {
	var parts []string
	for _, n := range names {
		if m&n.mask != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// Has reports whether every controller in want is set in m.
func (m Mask) Has(want Mask) bool {
	return m&want == want
}

// Requirement tracks the controllers a container has actually attached
// (Controllers) and those any property has ever demanded
// (RequiredControllers). Per invariant 2, RequiredControllers ⊆
// Controllers at all times.
type Requirement struct {
	Controllers         Mask
	RequiredControllers Mask
	started             bool
}

// Started marks the container as having left the Stopped state; after
// this, WantControllers may no longer introduce new controllers.
func (r *Requirement) Started() {
	r.started = true
}

// Stopped reverts the requirement to accepting new controllers, used
// when a container transitions back to Stopped.
func (r *Requirement) Stopped() {
	r.started = false
}

// WantControllers is the sole place new controller dependencies are
// introduced. While the container is stopped, it ORs mask into both
// Controllers and RequiredControllers. Once started, it only checks that
// every bit in mask is already attached, failing NotSupported otherwise.
func (r *Requirement) WantControllers(mask Mask) error {
	if !r.started {
		r.Controllers |= mask
		r.RequiredControllers |= mask
		return nil
	}
	if !r.Controllers.Has(mask) {
		return perr.NotSupportedf("controller %s not attached and container already started", mask)
	}
	return nil
}
