package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/portod/pkg/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFsCgroupUsageMemory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.current", "1048576\n")

	cg := &fsCgroup{path: dir, mask: controller.Memory}
	v, err := cg.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1048576), v)
}

func TestFsCgroupUsageCpuConvertsToNanoseconds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cpu.stat", "usage_usec 2000\nuser_usec 1000\nsystem_usec 1000\n")

	cg := &fsCgroup{path: dir, mask: controller.Cpu}
	v, err := cg.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2000*1000), v)
}

func TestFsCgroupUsageMissingFileIsZero(t *testing.T) {
	cg := &fsCgroup{path: t.TempDir(), mask: controller.Pids}
	v, err := cg.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestFsCgroupUsageMaxSentinelIsZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pids.current", "max\n")

	cg := &fsCgroup{path: dir, mask: controller.Pids}
	v, err := cg.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestFsCgroupGetAnonUsage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.stat", "anon 4096\nfile 8192\n")

	cg := &fsCgroup{path: dir, mask: controller.Memory}
	v, err := cg.GetAnonUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), v)
}

func TestFsCgroupGetHugeUsageSumsPageSizes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hugetlb.2MB.current", "2097152\n")
	writeFile(t, dir, "hugetlb.1GB.current", "0\n")

	cg := &fsCgroup{path: dir, mask: controller.Hugetlb}
	v, err := cg.GetHugeUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2097152), v)
}

func TestFsCgroupGetIoStatFiltersDirectionAndOps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "io.stat", "8:0 rbytes=100 wbytes=200 rios=5 wios=10\n")

	cg := &fsCgroup{path: dir, mask: controller.Blkio}

	read, err := cg.GetIoStat(context.Background(), "", "r", false)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), read)

	write, err := cg.GetIoStat(context.Background(), "", "w", false)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), write)

	ops, err := cg.GetIoStat(context.Background(), "", "", true)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), ops)
}

func TestFsCgroupStatisticsBlkioAggregatesAcrossDevices(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "io.stat", "8:0 rbytes=100 wbytes=200\n8:16 rbytes=50 wbytes=25\n")

	cg := &fsCgroup{path: dir, mask: controller.Blkio}
	stats, err := cg.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), stats["rbytes"])
	assert.Equal(t, uint64(225), stats["wbytes"])
}

func TestFsCgroupGetCountCountsLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cgroup.procs", "100\n200\n300\n")

	cg := &fsCgroup{path: dir, mask: controller.Pids}
	n, err := cg.GetCount(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestFsCgroupGetCountEmptyFileIsZero(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cgroup.procs", "")

	cg := &fsCgroup{path: dir, mask: controller.Pids}
	n, err := cg.GetCount(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestFsCgroupDiskNameFallsBackToDevPath(t *testing.T) {
	cg := &fsCgroup{path: t.TempDir()}
	name, err := cg.DiskName("8:0")
	require.NoError(t, err)
	// /sys/dev/block/8:0 won't resolve in a test sandbox, so DiskName
	// falls back to the raw major:minor key rather than erroring.
	assert.Equal(t, "8:0", name)
}

func TestFsCgroupResolveDiskStripsDevPrefix(t *testing.T) {
	cg := &fsCgroup{}
	name, err := cg.ResolveDisk("/dev/sda")
	require.NoError(t, err)
	assert.Equal(t, "sda", name)
}

func TestMatchesIoKey(t *testing.T) {
	assert.True(t, matchesIoKey("rbytes", "r", false))
	assert.True(t, matchesIoKey("rbytes", "", false))
	assert.False(t, matchesIoKey("rbytes", "w", false))
	assert.True(t, matchesIoKey("wios", "w", true))
	assert.False(t, matchesIoKey("wios", "w", false))
}

func TestCgroupManagerForContainerMissingDirReturnsNilHandle(t *testing.T) {
	m := NewCgroupManager(t.TempDir())
	handle := m.ForContainer("a/b")
	cg, err := handle(controller.Memory)
	require.NoError(t, err)
	assert.Nil(t, cg)
}
