package runtime

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/containerd/cgroups/v3/cgroup2"

	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/controller"
)

// DefaultCgroupRoot is where CgroupManager creates one subdirectory per
// container inside the host's unified (v2) cgroup hierarchy.
const DefaultCgroupRoot = "/sys/fs/cgroup/portod"

// CgroupManager resolves per-container, per-controller collab.Cgroup
// handles against the unified cgroup hierarchy, and owns the lifecycle
// operations (create/delete/freeze/add-pid) the Supervisor needs around
// a container's entry command. It uses containerd/cgroups/v3's cgroup2
// package to resolve and manage each container's cgroup, and reads the
// controllers' own stat files directly for the numeric counters
// collab.Cgroup exposes — the same files cgroup2.Manager.Stat would
// parse, read here without depending on that struct's exact shape.
type CgroupManager struct {
	root string
}

// NewCgroupManager builds a manager rooted at root (DefaultCgroupRoot
// when empty).
func NewCgroupManager(root string) *CgroupManager {
	if root == "" {
		root = DefaultCgroupRoot
	}
	return &CgroupManager{root: root}
}

func (m *CgroupManager) groupPath(name string) string {
	return filepath.Join(m.root, name)
}

// Create makes the container's cgroup, so the Supervisor can add its
// entry command's pid to it before the task starts running.
func (m *CgroupManager) Create(name string) (*cgroup2.Manager, error) {
	return cgroup2.NewManager("/sys/fs/cgroup", m.groupPath(name), &cgroup2.Resources{})
}

// Delete removes the container's cgroup once its entry command has
// exited and been reaped.
func (m *CgroupManager) Delete(name string) error {
	mgr, err := cgroup2.Load(m.groupPath(name))
	if err != nil {
		return nil
	}
	return mgr.Delete()
}

// AddPid joins pid to the container's cgroup.
func (m *CgroupManager) AddPid(name string, pid int) error {
	mgr, err := cgroup2.Load(m.groupPath(name))
	if err != nil {
		return fmt.Errorf("load cgroup %s: %w", name, err)
	}
	return mgr.AddProc(uint64(pid))
}

// Freeze pauses every process in the container's cgroup.
func (m *CgroupManager) Freeze(name string) error {
	mgr, err := cgroup2.Load(m.groupPath(name))
	if err != nil {
		return fmt.Errorf("load cgroup %s: %w", name, err)
	}
	return mgr.Freeze()
}

// Thaw resumes a previously Frozen container's cgroup.
func (m *CgroupManager) Thaw(name string) error {
	mgr, err := cgroup2.Load(m.groupPath(name))
	if err != nil {
		return fmt.Errorf("load cgroup %s: %w", name, err)
	}
	return mgr.Thaw()
}

// ForContainer returns the closure property.Ctx.Cgroup expects: given a
// controller mask, resolve that container's cgroup handle. The
// underlying cgroup2.Manager is reloaded on every call rather than
// cached, since observable-property reads happen far less often than
// the lifecycle operations above and a stale handle after Delete/Create
// would misreport.
func (m *CgroupManager) ForContainer(name string) func(controller.Mask) (collab.Cgroup, error) {
	path := m.groupPath(name)
	return func(mask controller.Mask) (collab.Cgroup, error) {
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
		return &fsCgroup{path: path, mask: mask}, nil
	}
}

// fsCgroup implements collab.Cgroup for one container's cgroup2
// directory. The unified hierarchy exposes every attached controller's
// files side by side in the same directory, so mask only picks which
// files a given call reads.
type fsCgroup struct {
	path string
	mask controller.Mask
}

func (c *fsCgroup) file(name string) string { return filepath.Join(c.path, name) }

func readUintFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "max" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func readKeyedFile(path string) (map[string]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]uint64{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := map[string]uint64{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out[fields[0]] = v
	}
	return out, sc.Err()
}

// Usage returns the primary counter for the controller mask addresses:
// memory.current for Memory, cpu.stat's usage_usec (converted to
// nanoseconds) for Cpu/Cpuacct, pids.current for Pids.
func (c *fsCgroup) Usage(ctx context.Context) (uint64, error) {
	switch {
	case c.mask.Has(controller.Memory):
		return readUintFile(c.file("memory.current"))
	case c.mask.Has(controller.Cpu) || c.mask.Has(controller.Cpuacct):
		stats, err := readKeyedFile(c.file("cpu.stat"))
		if err != nil {
			return 0, err
		}
		return stats["usage_usec"] * 1000, nil
	case c.mask.Has(controller.Pids):
		return readUintFile(c.file("pids.current"))
	}
	return 0, nil
}

// Statistics returns every exported counter for the addressed
// controller as name → value.
func (c *fsCgroup) Statistics(ctx context.Context) (map[string]uint64, error) {
	switch {
	case c.mask.Has(controller.Memory):
		return readKeyedFile(c.file("memory.stat"))
	case c.mask.Has(controller.Cpu) || c.mask.Has(controller.Cpuacct):
		return readKeyedFile(c.file("cpu.stat"))
	case c.mask.Has(controller.Blkio):
		return c.ioStats()
	}
	return map[string]uint64{}, nil
}

// GetAnonUsage reads memory.stat's anon field.
func (c *fsCgroup) GetAnonUsage(ctx context.Context) (uint64, error) {
	stats, err := readKeyedFile(c.file("memory.stat"))
	if err != nil {
		return 0, err
	}
	return stats["anon"], nil
}

// GetHugeUsage sums every hugetlb.<size>.current file's value.
func (c *fsCgroup) GetHugeUsage(ctx context.Context) (uint64, error) {
	entries, err := filepath.Glob(filepath.Join(c.path, "hugetlb.*.current"))
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, e := range entries {
		v, err := readUintFile(e)
		if err != nil {
			continue
		}
		total += v
	}
	return total, nil
}

func (c *fsCgroup) ioStats() (map[string]uint64, error) {
	f, err := os.Open(c.file("io.stat"))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]uint64{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := map[string]uint64{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		for _, kv := range fields[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				continue
			}
			out[k] += n
		}
	}
	return out, sc.Err()
}

// GetIoStat returns the named io.stat counter (bytes or ops) summed
// across every device line, or restricted to one device when disk is
// set.
func (c *fsCgroup) GetIoStat(ctx context.Context, disk, dir string, ops bool) (uint64, error) {
	f, err := os.Open(c.file("io.stat"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var total uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if disk != "" {
			if name, err := c.DiskName(fields[0]); err != nil || name != disk {
				continue
			}
		}
		for _, kv := range fields[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || !matchesIoKey(k, dir, ops) {
				continue
			}
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				continue
			}
			total += n
		}
	}
	return total, sc.Err()
}

func matchesIoKey(key, dir string, ops bool) bool {
	switch key {
	case "rbytes":
		return !ops && dir != "w"
	case "wbytes":
		return !ops && dir != "r"
	case "rios":
		return ops && dir != "w"
	case "wios":
		return ops && dir != "r"
	}
	return false
}

// DiskName resolves a cgroup io.stat "major:minor" device key to the
// kernel's display name for that block device via /sys/dev/block.
func (c *fsCgroup) DiskName(devPath string) (string, error) {
	if !strings.Contains(devPath, ":") {
		return devPath, nil
	}
	link := filepath.Join("/sys/dev/block", devPath)
	target, err := os.Readlink(link)
	if err != nil {
		return devPath, nil
	}
	return filepath.Base(target), nil
}

// ResolveDisk resolves a /dev/<name> path or a bare name to the bare
// display name GetIoStat/DiskName compare against.
func (c *fsCgroup) ResolveDisk(pathOrName string) (string, error) {
	return strings.TrimPrefix(pathOrName, "/dev/"), nil
}

// GetCount returns the process (or thread) count currently in the
// container's cgroup, by counting lines in cgroup.procs/cgroup.threads.
func (c *fsCgroup) GetCount(ctx context.Context, threads bool) (uint64, error) {
	name := "cgroup.procs"
	if threads {
		name = "cgroup.threads"
	}
	data, err := os.ReadFile(c.file(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return 0, nil
	}
	return uint64(len(strings.Split(trimmed, "\n"))), nil
}
