package property

import (
	"fmt"
	"strings"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/controller"
	"github.com/cuemby/portod/pkg/perr"
)

var netDirectiveArgs = map[string]int{
	"none":      0,
	"inherited": 0,
	"steal":     1,
	"container": 1,
	"macvlan":   2, // plus optional mode/mtu/hw trailing tokens
	"ipvlan":    2,
	"veth":      2,
	"L3":        1,
	"NAT":       0,
	"MTU":       2,
	"autoconf":  1,
	"netns":     1,
}

func registerNetwork() []Handler {
	return []Handler{
		newScalar("net", idNet, "network attachment directives", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return strings.Join(ctx.C.NetProp, ";"), nil },
			func(ctx *Ctx, value string) error {
				directives := codec.SplitEscaped(value, ';')
				for _, d := range directives {
					if err := validateNetDirective(d); err != nil {
						return err
					}
				}
				ctx.C.NetProp = directives
				return nil
			}),

		ipHandler(),

		defaultGwHandler(),

		netGuaranteeHandler(),

		netLimitHandler(),

		// net_priority is enforced to the 0-7 tc priority band.
		netPriorityHandler(),

		// net_tos is permanently unsupported (Open Question (b)): the
		// kernel ToS byte is superseded by net_priority/net_class_id and
		// no collaborator exposes a write path for it.
		newScalar("net_tos", idNetTos, "type-of-service byte (unsupported)", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return "", perr.NotSupportedf("net_tos is not supported") },
			func(ctx *Ctx, value string) error { return perr.NotSupportedf("net_tos is not supported") }),

		// net_class_id reports "dev: major:minor" per managed device,
		// derived from ContainerTC (upper 16 bits major, lower 16 minor).
		newObservable("net_class_id", "per-device net_cls classid", container.GateAlive,
			func(ctx *Ctx) (string, error) {
				if ctx.Net == nil {
					return "", nil
				}
				devices, err := ctx.Net.Devices(ctx.Ctx)
				if err != nil {
					return "", err
				}
				major := ctx.C.ContainerTC >> 16
				minor := ctx.C.ContainerTC & 0xffff
				parts := make([]string, 0, len(devices))
				for _, d := range devices {
					if !d.Managed {
						continue
					}
					parts = append(parts, fmt.Sprintf("%s: %d:%d", d.Name, major, minor))
				}
				return strings.Join(parts, "; "), nil
			}),
	}
}

func validateNetDirective(d string) error {
	fields := strings.Fields(d)
	if len(fields) == 0 {
		return perr.InvalidValuef("empty net directive")
	}
	minArgs, known := netDirectiveArgs[fields[0]]
	if !known {
		return perr.InvalidValuef("unknown net directive %q", fields[0])
	}
	if len(fields)-1 < minArgs {
		return perr.InvalidValuef("net directive %q needs at least %d argument(s)", fields[0], minArgs)
	}
	return nil
}

func parseOrderedStringMap(value string) map[string]string {
	om := codec.ParseOrderedMap(value)
	out := make(map[string]string, om.Len())
	for _, k := range om.Keys() {
		v, _ := om.Get(k)
		out[k] = v
	}
	return out
}

func ipHandler() Handler {
	h := newScalar("ip", idIp, "per-interface IP addresses", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatStringMap(ctx.C.IpList), nil },
		func(ctx *Ctx, value string) error {
			ctx.C.IpList = parseOrderedStringMap(value)
			return nil
		})
	h.getI, h.setI = stringMapIndexed(func(c *container.Container) *map[string]string { return &c.IpList })
	return h
}

func defaultGwHandler() Handler {
	h := newScalar("default_gw", idDefaultGw, "per-interface default gateway", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatStringMap(ctx.C.DefaultGw), nil },
		func(ctx *Ctx, value string) error {
			ctx.C.DefaultGw = parseOrderedStringMap(value)
			return nil
		})
	h.getI, h.setI = stringMapIndexed(func(c *container.Container) *map[string]string { return &c.DefaultGw })
	return h
}

func netGuaranteeHandler() Handler {
	h := newScalar("net_guarantee", idNetGuarantee, "per-interface bandwidth guarantee", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatUint64Map(ctx.C.NetGuarantee), nil },
		func(ctx *Ctx, value string) error {
			m, err := parseUint64Map(value)
			if err != nil {
				return err
			}
			if err := ctx.C.Requirement.WantControllers(controller.NetCLS); err != nil {
				return err
			}
			ctx.C.NetGuarantee = m
			return nil
		})
	h.getI, h.setI = uint64MapIndexed(
		func(c *container.Container) *map[string]uint64 { return &c.NetGuarantee },
		func(ctx *Ctx, key string, val uint64) error { return ctx.C.Requirement.WantControllers(controller.NetCLS) },
	)
	return h
}

func netLimitHandler() Handler {
	h := newScalar("net_limit", idNetLimit, "per-interface bandwidth limit", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatUint64Map(ctx.C.NetLimit), nil },
		func(ctx *Ctx, value string) error {
			m, err := parseUint64Map(value)
			if err != nil {
				return err
			}
			if err := ctx.C.Requirement.WantControllers(controller.NetCLS); err != nil {
				return err
			}
			ctx.C.NetLimit = m
			return nil
		})
	h.getI, h.setI = uint64MapIndexed(
		func(c *container.Container) *map[string]uint64 { return &c.NetLimit },
		func(ctx *Ctx, key string, val uint64) error { return ctx.C.Requirement.WantControllers(controller.NetCLS) },
	)
	return h
}

// netPriorityHandler enforces the 0-7 tc priority band on both the
// whole-value Set and the per-interface SetIndexed path.
func netPriorityHandler() Handler {
	h := newScalar("net_priority", idNetPriority, "per-interface tc priority, 0-7", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return formatUint64Map(ctx.C.NetPriority), nil },
		func(ctx *Ctx, value string) error {
			m, err := parseUint64Map(value)
			if err != nil {
				return err
			}
			for iface, prio := range m {
				if prio > 7 {
					return perr.InvalidValuef("net_priority for %s is %d, must be 0-7", iface, prio)
				}
			}
			if err := ctx.C.Requirement.WantControllers(controller.NetPrio); err != nil {
				return err
			}
			ctx.C.NetPriority = m
			return nil
		})
	h.getI, h.setI = uint64MapIndexed(
		func(c *container.Container) *map[string]uint64 { return &c.NetPriority },
		func(ctx *Ctx, key string, val uint64) error {
			if val > 7 {
				return perr.InvalidValuef("net_priority for %s is %d, must be 0-7", key, val)
			}
			return ctx.C.Requirement.WantControllers(controller.NetPrio)
		},
	)
	return h
}
