package property

import (
	"strconv"
	"strings"

	"github.com/cuemby/portod/pkg/codec"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/perr"
)

func registerIsolation() []Handler {
	return []Handler{
		newScalar("command", idCommand, "entry command line", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Command, nil },
			func(ctx *Ctx, value string) error { ctx.C.Command = value; return nil }),

		newScalar("cwd", idCwd, "working directory inside the container", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Cwd, nil },
			func(ctx *Ctx, value string) error { ctx.C.Cwd = value; return nil }),

		newScalar("root", idRoot, "chroot/pivot_root path", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Root, nil },
			func(ctx *Ctx, value string) error { ctx.C.Root = value; return nil }),

		newScalar("root_readonly", idRootReadonly, "mount root read-only", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.RootRo), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.RootRo = v
				return nil
			}),

		newScalar("umask", idUmask, "umask applied to the entry command", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return strconv.FormatUint(uint64(ctx.C.Umask), 8), nil },
			func(ctx *Ctx, value string) error {
				v, err := strconv.ParseUint(value, 8, 32)
				if err != nil {
					return perr.InvalidValuef("bad umask %q: %v", value, err)
				}
				ctx.C.Umask = uint32(v)
				return nil
			}),

		newScalar("hostname", idHostname, "hostname set inside the UTS namespace", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Hostname, nil },
			func(ctx *Ctx, value string) error { ctx.C.Hostname = value; return nil }),

		newScalar("bind_dns", idBindDns, "bind-mount host resolver files", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.BindDns), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				ctx.C.BindDns = v
				return nil
			}),

		// isolate is settable only while Stopped (GateAliveAndStopped); the
		// setter also refuses to relax it on a running container, which
		// covers restore, where the gate is not applied.
		newScalar("isolate", idIsolate, "enable full namespace isolation", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatBool(ctx.C.Isolate), nil },
			func(ctx *Ctx, value string) error {
				v, err := codec.ParseBool(value)
				if err != nil {
					return err
				}
				if !v && ctx.C.State.IsRunning() {
					return perr.InvalidStatef("isolate cannot be relaxed while %s is running", ctx.C.Name)
				}
				ctx.C.Isolate = v
				return nil
			}),

		newScalar("bind", idBind, "bind mounts, \"src dst [ro|rw]\" per entry", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return formatBindMounts(ctx.C.BindMounts), nil },
			func(ctx *Ctx, value string) error {
				mounts, err := parseBindMounts(value)
				if err != nil {
					return err
				}
				ctx.C.BindMounts = mounts
				return nil
			}),

		newEnvHandler(),

		newScalar("devices", idDevices, "device access rules", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return strings.Join(ctx.C.Devices, ";"), nil },
			func(ctx *Ctx, value string) error {
				ctx.C.Devices = codec.SplitEscaped(value, ';')
				return nil
			}),

		newScalar("resolv_conf", idResolvConf, "resolv.conf contents to install", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.ResolvConf, nil },
			func(ctx *Ctx, value string) error { ctx.C.ResolvConf = value; return nil }),

		newScalar("stdin_path", idStdinPath, "path redirected to the entry command's stdin", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Stdin, nil },
			func(ctx *Ctx, value string) error { ctx.C.Stdin = value; return nil }),

		newScalar("stdout_path", idStdoutPath, "path redirected from the entry command's stdout", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Stdout, nil },
			func(ctx *Ctx, value string) error { ctx.C.Stdout = value; return nil }),

		newScalar("stderr_path", idStderrPath, "path redirected from the entry command's stderr", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.Stderr, nil },
			func(ctx *Ctx, value string) error { ctx.C.Stderr = value; return nil }),

		// stdout_limit simultaneously governs the stderr capture limit
		// (Open Question (c)): one field, one cap, covering both streams.
		// Nothing in this repository applies the cap to captured output.
		newScalar("stdout_limit", idStdoutLimit, "captured stdout/stderr size limit", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return codec.FormatSize(ctx.C.StdoutLimit), nil },
			func(ctx *Ctx, value string) error {
				limit, err := codec.ParseSize(value)
				if err != nil {
					return err
				}
				if !ctx.Superuser && ctx.Config != nil && ctx.Config.StdoutLimitMax() > 0 && limit > ctx.Config.StdoutLimitMax() {
					limit = ctx.Config.StdoutLimitMax()
				}
				ctx.C.StdoutLimit = limit
				return nil
			}),

		newScalar("porto_namespace", idPortoNamespace, "namespace prefix applied to descendant names", container.GateAliveAndStopped,
			func(ctx *Ctx) (string, error) { return ctx.C.NsName, nil },
			func(ctx *Ctx, value string) error { ctx.C.NsName = value; return nil }),
	}
}

// newEnvHandler builds the env property: Set merges with the prior value
// and preserves insertion order; GetIndexed/SetIndexed address a single
// variable by name.
func newEnvHandler() Handler {
	h := &scalar{BaseHandler: newBase("env", idEnv, "environment variables, NAME=value per entry", container.GateAliveAndStopped)}
	h.get = func(ctx *Ctx) (string, error) {
		return codec.ParseEnvList(strings.Join(ctx.C.EnvCfg, ";")).String(), nil
	}
	h.set = func(ctx *Ctx, value string) error {
		merged := codec.ParseEnvList(strings.Join(ctx.C.EnvCfg, ";"))
		incoming := codec.ParseEnvList(value)
		for _, k := range incoming.Keys() {
			v, _ := incoming.Get(k)
			merged.Set(k, v)
		}
		ctx.C.EnvCfg = envEntries(merged)
		return nil
	}
	h.getI = func(ctx *Ctx, index string) (string, error) {
		l := codec.ParseEnvList(strings.Join(ctx.C.EnvCfg, ";"))
		v, ok := l.Get(index)
		if !ok {
			return "", perr.InvalidPropertyf("env has no variable %q", index)
		}
		return v, nil
	}
	h.setI = func(ctx *Ctx, index, value string) error {
		l := codec.ParseEnvList(strings.Join(ctx.C.EnvCfg, ";"))
		if value == "" {
			l.Delete(index)
		} else {
			l.Set(index, value)
		}
		ctx.C.EnvCfg = envEntries(l)
		return nil
	}
	return h
}

func envEntries(l *codec.EnvList) []string {
	entries := make([]string, 0, l.Len())
	for _, k := range l.Keys() {
		v, _ := l.Get(k)
		entries = append(entries, k+"="+v)
	}
	return entries
}

func formatBindMounts(mounts []container.BindMount) string {
	tuples := make([]codec.Tuple, 0, len(mounts))
	for _, m := range mounts {
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		tuples = append(tuples, codec.Tuple{m.Source, m.Dest, mode})
	}
	return codec.FormatTupleList(tuples, ";", " ")
}

func parseBindMounts(value string) ([]container.BindMount, error) {
	tuples := codec.ParseTupleList(value, ';', ' ')
	mounts := make([]container.BindMount, 0, len(tuples))
	for _, t := range tuples {
		if len(t) < 2 {
			return nil, perr.InvalidValuef("bind entry %q needs at least \"src dst\"", strings.Join(t, " "))
		}
		m := container.BindMount{Source: t[0], Dest: t[1]}
		if len(t) >= 3 {
			switch t[2] {
			case "ro":
				m.ReadOnly = true
			case "rw":
				m.ReadOnly = false
			default:
				return nil, perr.InvalidValuef("bind entry %q has unknown mode %q", strings.Join(t, " "), t[2])
			}
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}
