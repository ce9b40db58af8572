/*
Package runtime provides the concrete, swappable collaborators the
property engine's narrow pkg/collab interfaces are defined against:
collab.Supervisor (start/stop/pause/resume/kill the entry command) and
collab.Cgroup (read a controller's counters, attach a pid). The engine
itself never imports this package or containerd directly — only
pkg/collab.

# Architecture

	┌─────────────────── RUNTIME COLLABORATORS ─────────────────┐
	│                                                            │
	│  ┌──────────────────────────────────────────────┐         │
	│  │          ContainerdSupervisor                 │         │
	│  │  - Socket: /run/containerd/containerd.sock   │         │
	│  │  - Namespace: portod                          │         │
	│  │  - Configure(name, Spec) then Start/Stop/...  │         │
	│  └──────────────────┬───────────────────────────┘         │
	│                     │                                       │
	│  ┌──────────────────▼───────────────────────────┐         │
	│  │        Entry-Command Lifecycle                │         │
	│  │  - Start: create-or-load container, new task  │         │
	│  │  - Stop: SIGTERM → wait → SIGKILL → delete    │         │
	│  │  - Pause/Resume: task freezer                 │         │
	│  │  - Kill: arbitrary signal                      │         │
	│  └────────────────────────────────────────────────┘        │
	│                                                            │
	│  ┌──────────────────────────────────────────────┐         │
	│  │            CgroupManager                       │         │
	│  │  - /sys/fs/cgroup/portod/<container>          │         │
	│  │  - cgroup2.Manager for create/delete/freeze    │         │
	│  │  - direct file reads for Usage/Statistics/...  │         │
	│  └────────────────────────────────────────────────┘        │
	│                                                            │
	│  ┌──────────────────────────────────────────────┐         │
	│  │            CgroupProbe                         │         │
	│  │  - reads cgroup.controllers / memory.stat      │         │
	│  │  - implements collab.KernelProbe               │         │
	│  └────────────────────────────────────────────────┘        │
	└────────────────────────────────────────────────────────────┘

# Core Components

ContainerdSupervisor:
  - Wraps a single *containerd.Client connection
  - Configure(name, Spec) records the entry command's args/cwd/root/
    env/hostname; Start creates the containerd container lazily from
    the most recently Configured spec for that name
  - Thread-safe for concurrent operations on distinct containers

CgroupManager:
  - One cgroup2 directory per container under its root
  - Create/Delete/Freeze/Thaw/AddPid use containerd/cgroups/v3's
    cgroup2 package to resolve and manage the handle
  - ForContainer returns the closure property.Ctx.Cgroup expects,
    reading the addressed controller's files straight off disk rather
    than through cgroup2.Manager.Stat, since the engine only ever
    wants one or two specific counters at a time

CgroupProbe:
  - Reads /sys/fs/cgroup/cgroup.controllers once at daemon start to
    know which controllers the host has delegated
  - Reads memory.stat's key set to know which optional memory counters
    (anon, file_dirty) this kernel exports
  - Checks /proc/self/status for a CapAmb line to know whether ambient
    capabilities are supported

# Container Lifecycle

Start:
 1. Look up the Spec last Configured for this container name
 2. Load the containerd container if it exists, else create it from
    the Spec's OCI options (args, cwd, env, hostname, rootfs path)
 3. Create and start a new task with null stdio
 4. Return the pid into raw_root_pid / raw_start_time

Stop:
 1. Load the container and its task; a missing task is not an error
 2. SIGTERM, then wait up to 10s
 3. SIGKILL if the timeout elapses
 4. Delete the task to free containerd-side resources

# Usage

Wiring a Supervisor:

	sup, err := runtime.NewContainerdSupervisor("")
	if err != nil {
		log.Fatal(err)
	}
	defer sup.Close()

	sup.Configure("a/b", runtime.Spec{
		Command: c.Command,
		Cwd:     c.Cwd,
		Root:    c.Root,
		Env:     c.EnvCfg,
	})
	report, err := sup.Start(ctx, "a/b")

Wiring a Cgroup collaborator:

	cgroups := runtime.NewCgroupManager("")
	ctx := &property.Ctx{
		Cgroup: cgroups.ForContainer("a/b"),
		Probe:  runtime.NewCgroupProbe(""),
	}

# Design Patterns

Namespace Isolation:
  - Every container runs in the "portod" containerd namespace
  - Context wrapped once per call: namespaces.WithNamespace(ctx, "portod")

Idempotent Teardown:
  - Stop on an already-stopped container returns nil, not an error
  - Delete on a missing cgroup returns nil, not an error

Direct File Reads Over Stat():
  - The numeric getters read cgroupfs files directly instead of
    depending on cgroup2.Manager.Stat's parsed struct shape, since the
    engine only ever asks for one counter per call and a raw file read
    is a smaller, more obviously correct surface to keep in sync with
    the kernel's actual file layout

# See Also

  - pkg/collab for the Supervisor/Cgroup/KernelProbe interfaces
  - pkg/property for the observable getters that call through Cgroup
  - containerd documentation: https://containerd.io/
  - cgroup v2 documentation: https://docs.kernel.org/admin-guide/cgroup-v2.html
*/
package runtime
