package property

import (
	"strconv"
	"time"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/controller"
)

func registerObservable() []Handler {
	handlers := []Handler{
		newReadOnlyPersisted("state", idState, "current lifecycle state", container.GateAlive,
			func(ctx *Ctx) (string, error) { return string(ctx.C.State), nil },
			func(ctx *Ctx, value string) error { ctx.Tree.SetState(ctx.C, container.State(value)); return nil }),

		// exit_status is the raw wait(2) status; exit_code applies the
		// OOM/signal/WEXITSTATUS derivation on top of it.
		newReadOnlyPersisted("exit_status", idExitStatus, "raw wait(2) status of the last entry command", container.GateDead,
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.ExitStatus), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.Atoi(value)
				if err != nil {
					return err
				}
				ctx.C.ExitStatus = v
				return nil
			}),

		newObservable("exit_code", "OOM/signal-adjusted exit code", container.GateDead,
			func(ctx *Ctx) (string, error) { return strconv.Itoa(exitCode(ctx.C)), nil }),

		newReadOnlyPersisted("oom_killed", idOomKilled, "entry command was OOM-killed", container.GateDead,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.OomKilled), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.OomKilled = v
				return nil
			}),

		newObservable("start_time", "unix seconds the entry command started", container.GateAlive,
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(ctx.C.StartTime/1000, 10), nil }),

		newObservable("creation_time", "unix seconds the container was created", container.GateAlive,
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(ctx.C.RealCreationTime/1000, 10), nil }),

		// time reports running seconds: Dead uses DeathTime-StartTime; a
		// live container uses now-StartTime; a container with no StartTime
		// reports 0. The root is treated like any other container, so it
		// reports 0 as well; host uptime is not reported.
		newObservable("time", "seconds the entry command has been running", container.GateAlive,
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(runningSeconds(ctx.C), 10), nil }),

		newCgroupObservable("memory_usage", "current memory controller usage in bytes", controller.Memory,
			func(cg cgroupHandle) (uint64, error) { return cg.Usage() }),
		newCgroupObservable("anon_usage", "current anonymous memory usage in bytes", controller.Memory,
			func(cg cgroupHandle) (uint64, error) { return cg.GetAnonUsage() }),
		newCgroupObservable("hugetlb_usage", "current hugetlb usage in bytes", controller.Hugetlb,
			func(cg cgroupHandle) (uint64, error) { return cg.GetHugeUsage() }).
			RequireKernel(func(p collab.KernelProbe) bool { return p.HasHugetlb() }),
		newCgroupStat("max_rss", "peak resident set size in bytes", controller.Memory, "max_rss").
			RequireKernel(func(p collab.KernelProbe) bool { return p.HasTotalMaxRss() }),
		newCgroupStat("minor_faults", "minor page fault count", controller.Memory, "minor_faults"),
		newCgroupStat("major_faults", "major page fault count", controller.Memory, "major_faults"),
		newCgroupObservable("cpu_usage", "cumulative cpu time in nanoseconds", controller.Cpuacct,
			func(cg cgroupHandle) (uint64, error) { return cg.Usage() }),
		newCgroupStat("cpu_system", "cumulative kernel-mode cpu time in nanoseconds", controller.Cpuacct, "system"),

		newCgroupObservable("process_count", "live process count", controller.Pids,
			func(cg cgroupHandle) (uint64, error) { return cg.GetCount(false) }).
			RequireKernel(func(p collab.KernelProbe) bool { return p.HasPids() }),
		newCgroupObservable("thread_count", "live thread count", controller.Pids,
			func(cg cgroupHandle) (uint64, error) { return cg.GetCount(true) }).
			RequireKernel(func(p collab.KernelProbe) bool { return p.HasPids() }),

		newObservable("cgroups", "cgroup controllers attached to this container", container.GateAlive,
			func(ctx *Ctx) (string, error) { return ctx.C.Requirement.Controllers.String(), nil }),

		newObservable("absolute_name", "fully qualified container name", container.GateAlive,
			func(ctx *Ctx) (string, error) { return container.AbsoluteName(ctx.C), nil }),

		newObservable("absolute_namespace", "namespace prefix applied by ancestors", container.GateAlive,
			func(ctx *Ctx) (string, error) { return ctx.Tree.AbsoluteNamespace(ctx.C), nil }),

		newObservable("parent", "absolute name of the parent container", container.GateAlive,
			func(ctx *Ctx) (string, error) {
				parent, ok := ctx.Tree.Parent(ctx.C)
				if !ok {
					return "", nil
				}
				return container.AbsoluteName(parent), nil
			}),

		newObservable("root_pid", "host pid of the entry command", container.GateRunning,
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.TaskPid), nil }),

		newObservable("mem_total_limit", "tightest MemLimit across ancestors", container.GateAlive,
			func(ctx *Ctx) (string, error) { return formatLimit(ctx.Tree.GetTotalMemLimit(ctx.C)), nil }),

		newObservable("mem_total_guarantee", "aggregate MemGuarantee across the subtree", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.Tree.GetTotalMemGuarantee(ctx.C)), nil }),

		newObservable("porto_stat", "aggregate process counters for this container", container.GateAlive,
			func(ctx *Ctx) (string, error) {
				om := codec.NewOrderedMap()
				om.Set("respawn_count", strconv.Itoa(ctx.C.RespawnCount))
				om.Set("children", strconv.Itoa(len(ctx.C.Children)))
				om.Set("controllers", strconv.Itoa(popcount(uint32(ctx.C.Requirement.Controllers))))
				return om.String(), nil
			}),
	}
	handlers = append(handlers, registerNetworkObservables()...)
	handlers = append(handlers, registerIoObservables()...)
	return handlers
}

func exitCode(c *container.Container) int {
	switch {
	case c.OomKilled:
		return -99
	case c.ExitStatus&0x7f != 0 && c.ExitStatus&0x7f != 0x7f:
		return -(c.ExitStatus & 0x7f)
	default:
		return (c.ExitStatus >> 8) & 0xff
	}
}

func runningSeconds(c *container.Container) int64 {
	if c.State == container.Dead {
		if c.StartTime == 0 {
			return 0
		}
		return (c.DeathTime - c.StartTime) / 1000
	}
	if c.StartTime == 0 {
		return 0
	}
	return (nowMillis() - c.StartTime) / 1000
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func formatLimit(limit uint64) string {
	if limit == container.NoLimit {
		return "0"
	}
	return codec.FormatSize(limit)
}

func popcount(mask uint32) int {
	n := 0
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}
