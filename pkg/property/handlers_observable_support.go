package property

import (
	"context"
	"strconv"

	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/controller"
)

// cgroupHandle binds a collab.Cgroup to the request's context so observable
// getters don't have to thread ctx.Ctx through every call.
type cgroupHandle struct {
	ctx context.Context
	cg  collab.Cgroup
}

func (h cgroupHandle) Usage() (uint64, error)        { return h.cg.Usage(h.ctx) }
func (h cgroupHandle) GetAnonUsage() (uint64, error)  { return h.cg.GetAnonUsage(h.ctx) }
func (h cgroupHandle) GetHugeUsage() (uint64, error)  { return h.cg.GetHugeUsage(h.ctx) }
func (h cgroupHandle) GetCount(t bool) (uint64, error) { return h.cg.GetCount(h.ctx, t) }
func (h cgroupHandle) Statistics() (map[string]uint64, error) { return h.cg.Statistics(h.ctx) }

// newCgroupObservable builds a read-only property backed by a single
// Cgroup call, reporting "0" when the container has no cgroup attached
// for that controller yet (e.g. it has never started).
func newCgroupObservable(name, desc string, mask controller.Mask, read func(cgroupHandle) (uint64, error)) *scalar {
	return newObservable(name, desc, container.GateAlive, func(ctx *Ctx) (string, error) {
		v, err := readCgroupValue(ctx, mask, read)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(v, 10), nil
	})
}

// newCgroupStat builds a read-only property backed by one key of a
// Cgroup's Statistics map.
func newCgroupStat(name, desc string, mask controller.Mask, key string) *scalar {
	return newObservable(name, desc, container.GateAlive, func(ctx *Ctx) (string, error) {
		v, err := readCgroupValue(ctx, mask, func(cg cgroupHandle) (uint64, error) {
			stats, err := cg.Statistics()
			if err != nil {
				return 0, err
			}
			return stats[key], nil
		})
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(v, 10), nil
	})
}

func readCgroupValue(ctx *Ctx, mask controller.Mask, read func(cgroupHandle) (uint64, error)) (uint64, error) {
	if ctx.Cgroup == nil {
		return 0, nil
	}
	cg, err := ctx.Cgroup(mask)
	if err != nil || cg == nil {
		return 0, nil
	}
	return read(cgroupHandle{ctx: ctx.Ctx, cg: cg})
}

// registerNetworkObservables builds the net_* traffic counters, aggregated
// across every managed device the Network collaborator reports.
func registerNetworkObservables() []Handler {
	type counter func(rx, tx, rxP, txP, rxD, txD, overlimits uint64) uint64
	sum := func(pick counter) func(*Ctx) (string, error) {
		return func(ctx *Ctx) (string, error) {
			total, err := aggregateNetCounters(ctx, pick)
			if err != nil {
				return "", err
			}
			return strconv.FormatUint(total, 10), nil
		}
	}
	return []Handler{
		newObservable("net_bytes", "total rx+tx bytes across managed devices", container.GateAlive,
			sum(func(rx, tx, _, _, _, _, _ uint64) uint64 { return rx + tx })),
		newObservable("net_rx_bytes", "total rx bytes across managed devices", container.GateAlive,
			sum(func(rx, _, _, _, _, _, _ uint64) uint64 { return rx })),
		newObservable("net_tx_bytes", "total tx bytes across managed devices", container.GateAlive,
			sum(func(_, tx, _, _, _, _, _ uint64) uint64 { return tx })),
		newObservable("net_packets", "total rx+tx packets across managed devices", container.GateAlive,
			sum(func(_, _, rxP, txP, _, _, _ uint64) uint64 { return rxP + txP })),
		newObservable("net_rx_packets", "total rx packets across managed devices", container.GateAlive,
			sum(func(_, _, rxP, _, _, _, _ uint64) uint64 { return rxP })),
		newObservable("net_tx_packets", "total tx packets across managed devices", container.GateAlive,
			sum(func(_, _, _, txP, _, _, _ uint64) uint64 { return txP })),
		newObservable("net_drops", "total rx+tx drops across managed devices", container.GateAlive,
			sum(func(_, _, _, _, rxD, txD, _ uint64) uint64 { return rxD + txD })),
		newObservable("net_rx_drops", "total rx drops across managed devices", container.GateAlive,
			sum(func(_, _, _, _, rxD, _, _ uint64) uint64 { return rxD })),
		newObservable("net_tx_drops", "total tx drops across managed devices", container.GateAlive,
			sum(func(_, _, _, _, _, txD, _ uint64) uint64 { return txD })),
		newObservable("net_overlimits", "total tc overlimit events across managed devices", container.GateAlive,
			sum(func(_, _, _, _, _, _, o uint64) uint64 { return o })),
	}
}

func aggregateNetCounters(ctx *Ctx, pick func(rx, tx, rxP, txP, rxD, txD, overlimits uint64) uint64) (uint64, error) {
	if ctx.Net == nil {
		return 0, nil
	}
	devices, err := ctx.Net.Devices(ctx.Ctx)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, d := range devices {
		if !d.Managed {
			continue
		}
		rx, tx, rxP, txP, rxD, txD, overlimits, err := ctx.Net.Counters(ctx.Ctx, d.Name)
		if err != nil {
			continue
		}
		total += pick(rx, tx, rxP, txP, rxD, txD, overlimits)
	}
	return total, nil
}

// registerIoObservables builds the io_read/write/ops counters, aggregated
// across every disk the Cgroup adapter's blkio subsystem reports.
func registerIoObservables() []Handler {
	return []Handler{
		newObservable("io_read", "total bytes read across disks", container.GateAlive, ioStat("r", false)),
		newObservable("io_write", "total bytes written across disks", container.GateAlive, ioStat("w", false)),
		newObservable("io_ops", "total io operations across disks", container.GateAlive, ioStat("", true)),
	}
}

func ioStat(dir string, ops bool) func(*Ctx) (string, error) {
	return func(ctx *Ctx) (string, error) {
		if ctx.Cgroup == nil {
			return "0", nil
		}
		cg, err := ctx.Cgroup(controller.Blkio)
		if err != nil || cg == nil {
			return "0", nil
		}
		v, err := cg.GetIoStat(ctx.Ctx, "", dir, ops)
		if err != nil {
			return "0", nil
		}
		return strconv.FormatUint(v, 10), nil
	}
}
