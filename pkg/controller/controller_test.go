package controller

import (
	"testing"

	"github.com/cuemby/portod/pkg/perr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWantControllersBeforeStart(t *testing.T) {
	var r Requirement
	require.NoError(t, r.WantControllers(Memory))
	assert.True(t, r.Controllers.Has(Memory))
	assert.True(t, r.RequiredControllers.Has(Memory))
}

func TestWantControllersAfterStartRejectsNew(t *testing.T) {
	var r Requirement
	require.NoError(t, r.WantControllers(Memory))
	r.Started()

	err := r.WantControllers(Cpu)
	require.Error(t, err)
	assert.True(t, perr.Is(err, perr.NotSupported))
}

func TestWantControllersAfterStartAllowsAlreadyAttached(t *testing.T) {
	var r Requirement
	require.NoError(t, r.WantControllers(Memory | Cpu))
	r.Started()
	require.NoError(t, r.WantControllers(Memory))
}

func TestRequiredSubsetOfControllers(t *testing.T) {
	var r Requirement
	require.NoError(t, r.WantControllers(Memory))
	assert.True(t, r.Controllers.Has(r.RequiredControllers))
}
