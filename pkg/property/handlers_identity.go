package property

import (
	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/perr"
	"github.com/cuemby/portod/pkg/security"
)

func registerIdentity() []Handler {
	return []Handler{
		// user preserves Gid per invariant 8 when the new user is already
		// a member of the current gid, otherwise replaces it with the new
		// user's primary gid.
		newScalar("user", idUser, "start command with given user", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return security.UserName(ctx.C.TaskCred.Uid), nil },
			func(ctx *Ctx, value string) error {
				if !ctx.Superuser && !ctx.Client.CanControl(ctx.C.OwnerCred) {
					return perr.Permissionf("client may not change user of %s", ctx.C.Name)
				}
				cred, err := security.LoadCred(value, ctx.Superuser)
				if err != nil {
					return perr.InvalidValuef("%v", err)
				}
				if cred.IsMemberOf(ctx.C.TaskCred.Gid) {
					cred.Gid = ctx.C.TaskCred.Gid
				}
				ctx.C.TaskCred.Uid = cred.Uid
				ctx.C.TaskCred.Gid = cred.Gid
				return nil
			}),

		newScalar("group", idGroup, "start command with given group", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return security.GroupName(ctx.C.TaskCred.Gid), nil },
			func(ctx *Ctx, value string) error {
				if !ctx.Superuser && !ctx.Client.CanControl(ctx.C.OwnerCred) {
					return perr.Permissionf("client may not change group of %s", ctx.C.Name)
				}
				gid, err := security.LoadGroupID(value, ctx.Superuser)
				if err != nil {
					return perr.InvalidValuef("%v", err)
				}
				ctx.C.TaskCred.Gid = gid
				return nil
			}),

		newScalar("owner_user", idOwnerUser, "container owner user", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return security.UserName(ctx.C.OwnerCred.Uid), nil },
			func(ctx *Ctx, value string) error {
				if !ctx.Superuser && !ctx.Client.CanControl(ctx.C.OwnerCred) {
					return perr.Permissionf("client may not change owner of %s", ctx.C.Name)
				}
				cred, err := security.LoadCred(value, ctx.Superuser)
				if err != nil {
					return perr.InvalidValuef("%v", err)
				}
				ctx.C.OwnerCred = cred
				ctx.Tree.SanitizeCapabilities(ctx.C)
				return nil
			}),

		newScalar("owner_group", idOwnerGroup, "container owner group", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return security.GroupName(ctx.C.OwnerCred.Gid), nil },
			func(ctx *Ctx, value string) error {
				if !ctx.Superuser && !ctx.Client.CanControl(ctx.C.OwnerCred) {
					return perr.Permissionf("client may not change owner of %s", ctx.C.Name)
				}
				gid, err := security.LoadGroupID(value, ctx.Superuser)
				if err != nil {
					return perr.InvalidValuef("%v", err)
				}
				ctx.C.OwnerCred.Gid = gid
				return nil
			}),

		newScalar("virt_mode", idVirtMode, "container virtualization mode: app, os", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return string(ctx.C.VirtMode), nil },
			func(ctx *Ctx, value string) error {
				switch container.VirtMode(value) {
				case container.VirtApp, container.VirtOS:
					ctx.C.VirtMode = container.VirtMode(value)
				default:
					return perr.InvalidValuef("unknown virt_mode %q", value)
				}
				ctx.Tree.SanitizeCapabilities(ctx.C)
				return nil
			}),

		newScalar("enable_porto", idEnablePorto, "allow the container to issue daemon requests", container.GateAlive,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.AccessLevel != container.AccessNone), nil },
			func(ctx *Ctx, value string) error {
				enable, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				want := container.AccessNone
				if enable {
					want = container.AccessNormal
				}
				clamped, err := ctx.Tree.ClampAccessLevel(ctx.C, want, ctx.Superuser)
				if err != nil {
					return err
				}
				ctx.C.AccessLevel = clamped
				return nil
			}),

		newScalar("capabilities", idCapabilities, "limit capability set", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.CapLimit.Format(), nil },
			func(ctx *Ctx, value string) error {
				caps, err := security.Parse(value)
				if err != nil {
					return err
				}
				if !ctx.Superuser && !caps.SubsetOf(ctx.C.CapAllowed) {
					return perr.Permissionf("capabilities exceed the allowed set for %s", ctx.C.Name)
				}
				ctx.C.CapLimit = caps
				ctx.Tree.SanitizeCapabilities(ctx.C)
				return nil
			}),

		// capabilities_ambient auto-raises CapLimit when the ambient set
		// would otherwise exceed it (invariant 4).
		newCapabilitiesAmbient(),

		newScalar("private", idPrivate, "user-defined string attached to the container", container.GateAlive,
			func(ctx *Ctx) (string, error) { return ctx.C.Private, nil },
			func(ctx *Ctx, value string) error {
				max := 4096
				if ctx.Config != nil {
					max = ctx.Config.PrivateMax()
				}
				if max > 0 && len(value) > max {
					return perr.InvalidValuef("private value exceeds %d bytes", max)
				}
				ctx.C.Private = value
				return nil
			}),
	}
}

func newCapabilitiesAmbient() Handler {
	h := newScalar("capabilities_ambient", idCapabilitiesAmbient, "ambient capability set", container.GateAliveAndStopped,
		func(ctx *Ctx) (string, error) { return ctx.C.CapAmbient.Format(), nil },
		func(ctx *Ctx, value string) error {
			caps, err := security.Parse(value)
			if err != nil {
				return err
			}
			if !ctx.Superuser && !caps.SubsetOf(ctx.C.CapAllowed) {
				return perr.Permissionf("ambient capabilities exceed the allowed set for %s", ctx.C.Name)
			}
			if !caps.SubsetOf(ctx.C.CapLimit) {
				ctx.C.CapLimit = ctx.C.CapLimit.Or(caps)
			}
			ctx.C.CapAmbient = caps
			ctx.Tree.SanitizeCapabilities(ctx.C)
			return nil
		})
	return h.RequireKernel(func(p collab.KernelProbe) bool { return p.HasAmbientCapabilities() })
}
