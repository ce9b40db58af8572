package property

import (
	"strconv"
	"strings"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/perr"
)

func registerPersist() []Handler {
	return []Handler{
		// raw_root_pid restores the "task;vtask;wait" triple persisted at
		// shutdown; a single-field value (pre-namespace-pid daemons) omits
		// the vtask and leaves it zero.
		newHiddenRestore("raw_root_pid", idRawRootPid, "persisted task/vtask/wait pid triple",
			func(ctx *Ctx) (string, error) {
				return strings.Join([]string{
					strconv.Itoa(ctx.C.TaskPid),
					strconv.Itoa(ctx.C.TaskVPid),
					strconv.Itoa(ctx.C.WaitTaskPid),
				}, ";"), nil
			},
			func(ctx *Ctx, value string) error {
				fields := codec.SplitEscaped(value, ';')
				switch len(fields) {
				case 1:
					pid, err := strconv.Atoi(fields[0])
					if err != nil {
						return perr.InvalidValuef("bad raw_root_pid %q: %v", value, err)
					}
					ctx.C.TaskPid = pid
					ctx.C.TaskVPid = 0
					ctx.C.WaitTaskPid = pid
				case 3:
					pid, err := strconv.Atoi(fields[0])
					if err != nil {
						return perr.InvalidValuef("bad raw_root_pid %q: %v", value, err)
					}
					vpid, err := strconv.Atoi(fields[1])
					if err != nil {
						return perr.InvalidValuef("bad raw_root_pid %q: %v", value, err)
					}
					wait, err := strconv.Atoi(fields[2])
					if err != nil {
						return perr.InvalidValuef("bad raw_root_pid %q: %v", value, err)
					}
					ctx.C.TaskPid = pid
					ctx.C.TaskVPid = vpid
					ctx.C.WaitTaskPid = wait
				default:
					return perr.InvalidValuef("raw_root_pid %q must have 1 or 3 fields", value)
				}
				return nil
			}),

		newHiddenRestore("raw_seize_pid", idRawSeizePid, "persisted seize-task pid",
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.SeizeTaskPid), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.Atoi(value)
				if err != nil {
					return perr.InvalidValuef("bad raw_seize_pid %q: %v", value, err)
				}
				ctx.C.SeizeTaskPid = v
				return nil
			}),

		newHiddenRestore("raw_loop_dev", idRawLoopDev, "persisted loop device index",
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.LoopDev), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.Atoi(value)
				if err != nil {
					return perr.InvalidValuef("bad raw_loop_dev %q: %v", value, err)
				}
				ctx.C.LoopDev = v
				return nil
			}),

		newHiddenRestore("raw_start_time", idRawStartTime, "persisted entry-command start time in ms",
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(ctx.C.StartTime, 10), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return perr.InvalidValuef("bad raw_start_time %q: %v", value, err)
				}
				ctx.C.StartTime = v
				return nil
			}),

		newHiddenRestore("raw_death_time", idRawDeathTime, "persisted death time in ms",
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(ctx.C.DeathTime, 10), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return perr.InvalidValuef("bad raw_death_time %q: %v", value, err)
				}
				ctx.C.DeathTime = v
				return nil
			}),

		newHiddenRestore("respawn_count", idRespawnCount, "persisted respawn attempt count",
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.RespawnCount), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.Atoi(value)
				if err != nil {
					return perr.InvalidValuef("bad respawn_count %q: %v", value, err)
				}
				ctx.C.RespawnCount = v
				return nil
			}),
	}
}
