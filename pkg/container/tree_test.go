package container

import (
	"testing"

	"github.com/cuemby/portod/pkg/perr"
	"github.com/cuemby/portod/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndLookup(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	a, err := tr.Create(root, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Name)

	got, ok := tr.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, a.Id, got.Id)
}

func TestMemGuaranteeExhaustion(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	a, _ := tr.Create(root, "a")
	b, _ := tr.Create(root, "b")

	const total = 10 << 30 // 10 GiB
	const reserve = 1 << 30 // 1 GiB

	require.NoError(t, tr.CheckMemGuarantee(a, 5<<30, total, reserve))
	a.MemGuarantee = 5 << 30

	err := tr.CheckMemGuarantee(b, 5<<30, total, reserve)
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.ResourceNotAvailable))
	assert.Contains(t, err.Error(), "4294967296 bytes")
}

func TestGetTotalMemGuaranteeAggregatesChildren(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	parent, _ := tr.Create(root, "parent")
	c1, _ := tr.Create(parent, "parent/c1")
	c2, _ := tr.Create(parent, "parent/c2")
	c1.MemGuarantee = 1 << 20
	c2.MemGuarantee = 2 << 20

	assert.Equal(t, uint64(3<<20), tr.GetTotalMemGuarantee(parent))

	parent.MemGuarantee = 10 << 20
	assert.Equal(t, uint64(10<<20), tr.GetTotalMemGuarantee(parent))
}

func TestGetTotalMemLimitTightestUpward(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	parent, _ := tr.Create(root, "parent")
	child, _ := tr.Create(parent, "parent/child")

	assert.Equal(t, NoLimit, tr.GetTotalMemLimit(child))

	parent.MemLimit = 100
	child.MemLimit = 50
	assert.Equal(t, uint64(50), tr.GetTotalMemLimit(child))

	child.MemLimit = 200
	assert.Equal(t, uint64(100), tr.GetTotalMemLimit(child))
}

func TestClampCpuLimitNonSuperuser(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	parent, _ := tr.Create(root, "parent")
	parent.CpuLimit = 2.0
	child, _ := tr.Create(parent, "parent/child")

	require.Error(t, tr.ClampCpuLimit(child, 3.0, false))
	require.NoError(t, tr.ClampCpuLimit(child, 3.0, true))
	require.NoError(t, tr.ClampCpuLimit(child, 1.0, false))
}

func TestClampAccessLevelNonIncreasing(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	parent, _ := tr.Create(root, "parent")
	parent.AccessLevel = AccessChildOnly
	child, _ := tr.Create(parent, "parent/child")

	got, err := tr.ClampAccessLevel(child, AccessNormal, false)
	require.NoError(t, err)
	assert.Equal(t, AccessChildOnly, got)

	got, err = tr.ClampAccessLevel(child, AccessNormal, true)
	require.NoError(t, err)
	assert.Equal(t, AccessNormal, got)
}

func TestSanitizeCapabilitiesClampsToAncestor(t *testing.T) {
	tr := NewTree()
	root, _ := tr.Get(0)
	parent, _ := tr.Create(root, "parent")
	parent.OwnerCred = security.Cred{Uid: 1000}
	parent.CapLimit = security.MustParse("NET_ADMIN")
	parent.CapAllowed = security.AppModeCapabilities

	child, _ := tr.Create(parent, "parent/child")
	child.OwnerCred = security.Cred{Uid: 1000}
	child.CapLimit = security.MustParse("NET_ADMIN;SYS_ADMIN")

	tr.SanitizeCapabilities(child)

	assert.True(t, child.CapLimit.SubsetOf(security.MustParse("NET_ADMIN")))
	assert.False(t, security.MustParse("SYS_ADMIN").SubsetOf(child.CapLimit))
}

func TestExplicitlySetMonotonic(t *testing.T) {
	c := New(0, "/")
	const propUser PropertyID = 5
	assert.False(t, c.HasProp(propUser))
	c.SetProp(propUser)
	assert.True(t, c.HasProp(propUser))
}
