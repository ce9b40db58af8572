package property

import (
	"sort"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/controller"
	"github.com/cuemby/portod/pkg/log"
	"github.com/cuemby/portod/pkg/perr"
)

func registerResources() []Handler {
	return []Handler{
		newScalar("memory_limit", idMemoryLimit, "hard memory limit, 0 for unlimited", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.MemLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				if err := ctx.C.Requirement.WantControllers(controller.Memory); err != nil {
					return err
				}
				if limit != 0 && ctx.Config != nil && limit < ctx.Config.MinMemoryLimit() {
					return perr.InvalidValuef("memory_limit %d below minimum %d", limit, ctx.Config.MinMemoryLimit())
				}
				ctx.C.MemLimit = limit
				return nil
			}),

		// memory_guarantee checks the aggregate guarantee across the whole
		// tree against total-reserve before committing (invariant 1).
		newScalar("memory_guarantee", idMemoryGuarantee, "guaranteed memory reservation", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.MemGuarantee), nil },
			func(ctx *Ctx, value string) error {
				guarantee, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				if err := ctx.C.Requirement.WantControllers(controller.Memory); err != nil {
					return err
				}
				var total, reserve uint64
				if ctx.Config != nil {
					total = ctx.Config.TotalSystemMemory()
					reserve = ctx.Config.MemoryGuaranteeReserve()
				}
				if err := ctx.Tree.CheckMemGuarantee(ctx.C, guarantee, total, reserve); err != nil {
					return err
				}
				ctx.C.MemGuarantee = guarantee
				return nil
			}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasMemoryGuarantee() }),

		newScalar("anon_limit", idAnonLimit, "limit on anonymous memory usage", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.AnonMemLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				ctx.C.AnonMemLimit = limit
				return nil
			}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasAnonLimit() }),

		newScalar("dirty_limit", idDirtyLimit, "limit on dirty page cache", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.DirtyMemLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				ctx.C.DirtyMemLimit = limit
				return nil
			}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasDirtyLimit() }),

		// hugetlb_limit rejects a shrink below live usage, read through the
		// hugetlb cgroup when the container has one running.
		newScalar("hugetlb_limit", idHugetlbLimit, "limit on hugetlb memory usage", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.HugetlbLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				if err := ctx.C.Requirement.WantControllers(controller.Hugetlb); err != nil {
					return err
				}
				if limit != 0 && ctx.Cgroup != nil {
					cg, err := ctx.Cgroup(controller.Hugetlb)
					if err == nil {
						if usage, err := cg.Usage(ctx.Ctx); err == nil && limit < usage {
							return perr.InvalidValuef("hugetlb_limit %d below current usage %d", limit, usage)
						}
					}
				}
				ctx.C.HugetlbLimit = limit
				return nil
			}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasHugetlb() }),

		newScalar("cpu_limit", idCpuLimit, "cpu limit in cores, c-suffixed or percent", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatCPU(ctx.C.CpuLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseCPU(value, numCores(ctx))
				if err != nil {
					return err
				}
				if err := ctx.Tree.ClampCpuLimit(ctx.C, limit, ctx.Superuser); err != nil {
					return err
				}
				if err := ctx.C.Requirement.WantControllers(controller.Cpu); err != nil {
					return err
				}
				ctx.C.CpuLimit = limit
				return nil
			}),

		// cpu_guarantee exceeding the parent's is only logged, never
		// rejected (Open Question (a)): the kernel cgroup controller
		// cannot enforce a hard bound on cpu shares the way it can on
		// cpu.cfs_quota, so the engine records the request and warns.
		newScalar("cpu_guarantee", idCpuGuarantee, "cpu guarantee in cores", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatCPU(ctx.C.CpuGuarantee), nil },
			func(ctx *Ctx, value string) error {
				guarantee, err := codec.ParseCPU(value, numCores(ctx))
				if err != nil {
					return err
				}
				if !ctx.Superuser {
					if parent, ok := ctx.Tree.Parent(ctx.C); ok && parent.CpuGuarantee > 0 && guarantee > parent.CpuGuarantee {
						log.Warn("cpu_guarantee " + ctx.C.Name + " exceeds parent guarantee, accepting anyway")
					}
				}
				if err := ctx.C.Requirement.WantControllers(controller.Cpu); err != nil {
					return err
				}
				ctx.C.CpuGuarantee = guarantee
				return nil
			}),

		newScalar("cpu_set", idCpuSet, "cpuset affinity", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.CpuSet, nil },
			func(ctx *Ctx, value string) error {
				if err := ctx.C.Requirement.WantControllers(controller.Cpuset); err != nil {
					return err
				}
				ctx.C.CpuSet = value
				return nil
			}),

		// cpu_policy derives SchedPolicy/SchedNice/SchedPrio per the
		// CPU-policy derivation table; rt additionally depends on whether
		// the daemon config's enable_smart setting is on.
		newScalar("cpu_policy", idCpuPolicy, "cpu scheduling class: rt, high, normal, batch, idle, iso", container.GateAlive,
			func(ctx *Ctx) (string, error) { return string(ctx.C.CpuPolicy), nil },
			func(ctx *Ctx, value string) error {
				policy := container.CpuPolicy(value)
				rtNice, rtPrio, highNice := 0, 0, 0
				if ctx.Config != nil {
					rtNice = ctx.Config.RtNice()
					rtPrio = ctx.Config.RtPriority()
					highNice = ctx.Config.HighNice()
				}
				smart := ctx.Config != nil && ctx.Config.EnableSmart()
				switch policy {
				case container.CpuPolicyRt:
					ctx.C.SchedPolicy = container.SchedOther
					if rtPrio != 0 && !smart {
						ctx.C.SchedPolicy = container.SchedRR
					}
					ctx.C.SchedNice = rtNice
					ctx.C.SchedPrio = rtPrio
				case container.CpuPolicyHigh:
					ctx.C.SchedPolicy = container.SchedOther
					ctx.C.SchedNice = highNice
					ctx.C.SchedPrio = 0
				case container.CpuPolicyNormal:
					ctx.C.SchedPolicy = container.SchedOther
					ctx.C.SchedNice = 0
					ctx.C.SchedPrio = 0
				case container.CpuPolicyBatch:
					ctx.C.SchedPolicy = container.SchedBatch
					ctx.C.SchedNice = 0
					ctx.C.SchedPrio = 0
				case container.CpuPolicyIdle:
					ctx.C.SchedPolicy = container.SchedIdle
					ctx.C.SchedNice = 0
					ctx.C.SchedPrio = 0
				case container.CpuPolicyIso:
					ctx.C.SchedPolicy = container.SchedIso
					ctx.C.SchedNice = highNice
					ctx.C.SchedPrio = 0
				default:
					return perr.InvalidValuef("unknown cpu_policy %q", value)
				}
				ctx.C.CpuPolicy = policy
				return nil
			}),

		newScalar("io_policy", idIoPolicy, "io scheduling class: normal, batch", container.GateAlive,
			func(ctx *Ctx) (string, error) { return string(ctx.C.IoPolicy), nil },
			func(ctx *Ctx, value string) error {
				switch container.IoPolicy(value) {
				case container.IoPolicyNormal, container.IoPolicyBatch:
					ctx.C.IoPolicy = container.IoPolicy(value)
				default:
					return perr.InvalidValuef("unknown io_policy %q", value)
				}
				return nil
			}),

		// io_limit routes the "fs" key to the memory controller's
		// writeback limit and every other key (disk path or name) to the
		// blk-io throttler (Open Question (c)).
		ioLimitHandler(),

		ioOpsLimitHandler(),

		newScalar("thread_limit", idThreadLimit, "limit on thread count", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.ThreadLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				if err := ctx.C.Requirement.WantControllers(controller.Pids); err != nil {
					return err
				}
				ctx.C.ThreadLimit = limit
				return nil
			}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasPids() }),

		ulimitHandler(),
	}
}

// ioLimitHandler addresses per-disk bandwidth limits both as a whole
// (Get/Set) and per key (GetIndexed/SetIndexed), the latter required by
// invariant 5's empty-value-removes-the-key contract for every map-valued
// property, not just env.
func ioLimitHandler() Handler {
	h := newScalar("io_limit", idIoLimit, "io bandwidth limit, fs or disk-keyed", container.GateAlive,
		func(ctx *Ctx) (string, error) { return formatUint64Map(ctx.C.IoBpsLimit), nil },
		func(ctx *Ctx, value string) error {
			parsed, err := parseUint64Map(value)
			if err != nil {
				return err
			}
			var want controller.Mask
			for k := range parsed {
				if k == "fs" {
					want |= controller.Memory
				} else {
					want |= controller.Blkio
				}
			}
			if err := ctx.C.Requirement.WantControllers(want); err != nil {
				return err
			}
			ctx.C.IoBpsLimit = parsed
			return nil
		}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasIoLimit() })
	h.getI, h.setI = uint64MapIndexed(
		func(c *container.Container) *map[string]uint64 { return &c.IoBpsLimit },
		func(ctx *Ctx, key string, val uint64) error {
			if key == "fs" {
				return ctx.C.Requirement.WantControllers(controller.Memory)
			}
			return ctx.C.Requirement.WantControllers(controller.Blkio)
		},
	)
	return h
}

func ioOpsLimitHandler() Handler {
	h := newScalar("io_ops_limit", idIoOpsLimit, "io operation-rate limit, fs or disk-keyed", container.GateAlive,
		func(ctx *Ctx) (string, error) { return formatUint64Map(ctx.C.IoOpsLimit), nil },
		func(ctx *Ctx, value string) error {
			parsed, err := parseUint64Map(value)
			if err != nil {
				return err
			}
			if err := ctx.C.Requirement.WantControllers(controller.Blkio); err != nil {
				return err
			}
			ctx.C.IoOpsLimit = parsed
			return nil
		}).RequireKernel(func(p collab.KernelProbe) bool { return p.HasIoLimit() })
	h.getI, h.setI = uint64MapIndexed(
		func(c *container.Container) *map[string]uint64 { return &c.IoOpsLimit },
		func(ctx *Ctx, key string, val uint64) error { return ctx.C.Requirement.WantControllers(controller.Blkio) },
	)
	return h
}

// ulimitHandler addresses per-resource rlimit pairs as a whole and per key;
// values are raw soft:hard strings, not sizes, so it uses stringMapIndexed
// rather than uint64MapIndexed.
func ulimitHandler() Handler {
	h := newScalar("ulimit", idUlimit, "per-resource soft/hard rlimit pairs", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatStringMap(ctx.C.Ulimit), nil },
		func(ctx *Ctx, value string) error {
			m := codec.ParseOrderedMap(value)
			out := make(map[string]string, m.Len())
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				out[k] = v
			}
			ctx.C.Ulimit = out
			return nil
		})
	h.getI, h.setI = stringMapIndexed(func(c *container.Container) *map[string]string { return &c.Ulimit })
	return h
}

func numCores(ctx *Ctx) float64 {
	if ctx.Config != nil && ctx.Config.NumCores() > 0 {
		return ctx.Config.NumCores()
	}
	return 1
}

func formatUint64Map(m map[string]uint64) string {
	om := codec.NewOrderedMap()
	for _, k := range sortedKeys(m) {
		om.Set(k, codec.FormatSize(m[k]))
	}
	return om.String()
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseUint64Map(value string) (map[string]uint64, error) {
	om := codec.ParseOrderedMap(value)
	out := make(map[string]uint64, om.Len())
	for _, k := range om.Keys() {
		raw, _ := om.Get(k)
		v, err := codec.ParseSize(raw)
		if err != nil {
			return nil, perr.InvalidValuef("bad value for key %q: %v", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func formatStringMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	om := codec.NewOrderedMap()
	for _, k := range keys {
		om.Set(k, m[k])
	}
	return om.String()
}
