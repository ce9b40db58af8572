// Package property implements the property registry, dispatcher, and the
// full set of per-property handlers that validate, permission-check, and
// apply every mutation to a container's record.
package property

import (
	"context"

	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/controller"
	"github.com/cuemby/portod/pkg/security"
)

// Ctx is the per-request ambient state a handler needs: the target
// container, the acting client's credential, and the collaborators it may
// read through. Built fresh by the dispatcher for each request and passed
// explicitly — never stashed in a global or goroutine-local.
type Ctx struct {
	Ctx       context.Context
	Tree      *container.Tree
	C         *container.Container
	Client    security.Cred
	Superuser bool
	Config    collab.Config
	Probe     collab.KernelProbe
	Net       collab.Network
	Cgroup    func(controller.Mask) (collab.Cgroup, error)
}
