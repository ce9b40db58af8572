package runtime

import (
	"bufio"
	"os"
	"strings"
)

// CgroupProbe implements collab.KernelProbe by inspecting the host's
// unified cgroup hierarchy and /proc for each optional feature's actual
// on-disk signal, once at daemon start. Registry.Init consults it to
// compute each gated property's Supported() flag.
type CgroupProbe struct {
	controllers map[string]bool
	memoryStat  map[string]bool
	ambientCaps bool
}

// NewCgroupProbe probes root (DefaultCgroupRoot's parent, "/sys/fs/cgroup",
// when empty) once and caches the result.
func NewCgroupProbe(root string) *CgroupProbe {
	if root == "" {
		root = "/sys/fs/cgroup"
	}
	return &CgroupProbe{
		controllers: readFieldSet(root + "/cgroup.controllers"),
		memoryStat:  readKeySet(root + "/memory.stat"),
		ambientCaps: hasAmbientCapSupport(),
	}
}

func readFieldSet(path string) map[string]bool {
	out := map[string]bool{}
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	for _, name := range strings.Fields(string(data)) {
		out[name] = true
	}
	return out
}

func readKeySet(path string) map[string]bool {
	out := map[string]bool{}
	f, err := os.Open(path)
	if err != nil {
		return out
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			out[fields[0]] = true
		}
	}
	return out
}

func hasAmbientCapSupport() bool {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "CapAmb:")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (p *CgroupProbe) HasAmbientCapabilities() bool { return p.ambientCaps }
func (p *CgroupProbe) HasMemoryGuarantee() bool     { return fileExists("/sys/fs/cgroup/memory.min") }
func (p *CgroupProbe) HasAnonLimit() bool           { return p.memoryStat["anon"] }
func (p *CgroupProbe) HasDirtyLimit() bool          { return p.memoryStat["file_dirty"] }
func (p *CgroupProbe) HasIoLimit() bool             { return p.controllers["io"] }
func (p *CgroupProbe) HasRechargeOnPgfault() bool   { return false }
func (p *CgroupProbe) HasBlkioWeight() bool         { return fileExists("/sys/fs/cgroup/io.weight") }
func (p *CgroupProbe) HasBlkioThrottler() bool      { return p.controllers["io"] }
func (p *CgroupProbe) HasHugetlb() bool             { return p.controllers["hugetlb"] }
func (p *CgroupProbe) HasPids() bool                { return p.controllers["pids"] }
func (p *CgroupProbe) HasTotalMaxRss() bool         { return fileExists("/sys/fs/cgroup/memory.peak") }
func (p *CgroupProbe) HasSmart() bool               { return true }
