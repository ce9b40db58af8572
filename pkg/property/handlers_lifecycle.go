package property

import (
	"strconv"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/perr"
)

func registerLifecycle() []Handler {
	return []Handler{
		newScalar("respawn", idRespawn, "restart the entry command on exit", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.ToRespawn), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.ToRespawn = v
				return nil
			}),

		newScalar("max_respawns", idMaxRespawns, "respawn attempt ceiling, -1 for unlimited", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return strconv.Itoa(ctx.C.MaxRespawns), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.Atoi(value)
				if err != nil {
					return perr.InvalidValuef("bad max_respawns %q: %v", value, err)
				}
				ctx.C.MaxRespawns = v
				return nil
			}),

		newScalar("weak", idWeak, "destroy container when its creating client disconnects", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.IsWeak), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.IsWeak = v
				return nil
			}),

		// aging_time is accepted in seconds on the wire but stored in ms.
		newScalar("aging_time", idAgingTime, "seconds a dead container is kept before reaping", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return strconv.FormatInt(ctx.C.AgingTime/1000, 10), nil },
			func(ctx *Ctx, value string) error {
				seconds, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return perr.InvalidValuef("bad aging_time %q: %v", value, err)
				}
				ctx.C.AgingTime = seconds * 1000
				return nil
			}),

		newScalar("oom_is_fatal", idOomIsFatal, "kill the whole container when the entry command is OOM-killed", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.OomIsFatal), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.OomIsFatal = v
				return nil
			}),
	}
}
