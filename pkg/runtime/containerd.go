package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"

	"github.com/cuemby/portod/pkg/collab"
)

const (
	// DefaultNamespace is the containerd namespace portod's containers
	// run in, kept separate from any other containerd consumer on the
	// same host.
	DefaultNamespace = "portod"

	// DefaultSocketPath is the default containerd socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"
)

// Spec is the subset of a container's properties the supervisor needs
// to start its entry command. This package never imports pkg/container
// (collaborators stay on the far side of pkg/collab's interfaces), so
// the caller copies the fields it needs out of the container record
// into a Spec and hands it to Configure before calling Start.
type Spec struct {
	Command  string
	Cwd      string
	Root     string
	RootRO   bool
	Env      []string
	Hostname string
}

// ContainerdSupervisor implements collab.Supervisor using containerd's
// client SDK. Each container gets its own containerd container object,
// created lazily on first Start from whatever Spec was last Configured
// for that name.
type ContainerdSupervisor struct {
	client    *containerd.Client
	namespace string

	mu    sync.Mutex
	specs map[string]Spec
}

// NewContainerdSupervisor dials containerd at socketPath (or
// DefaultSocketPath when empty).
func NewContainerdSupervisor(socketPath string) (*ContainerdSupervisor, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd: %w", err)
	}

	return &ContainerdSupervisor{
		client:    client,
		namespace: DefaultNamespace,
		specs:     make(map[string]Spec),
	}, nil
}

// Close releases the containerd client connection.
func (r *ContainerdSupervisor) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Configure records the entry-command spec that Start uses for name;
// Start fails for a name with no recorded spec. Outside the tests,
// nothing in this repository calls it.
func (r *ContainerdSupervisor) Configure(name string, spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[name] = spec
}

func (r *ContainerdSupervisor) specFor(name string) (Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[name]
	return s, ok
}

func ociSpecOpts(spec Spec) []oci.SpecOpts {
	args := strings.Fields(spec.Command)
	if len(args) == 0 {
		args = []string{"/bin/true"}
	}
	opts := []oci.SpecOpts{oci.WithProcessArgs(args...)}
	if spec.Cwd != "" {
		opts = append(opts, oci.WithProcessCwd(spec.Cwd))
	}
	if len(spec.Env) > 0 {
		opts = append(opts, oci.WithEnv(spec.Env))
	}
	if spec.Hostname != "" {
		opts = append(opts, oci.WithHostname(spec.Hostname))
	}
	if spec.Root != "" {
		opts = append(opts, oci.WithRootFSPath(spec.Root))
	}
	return opts
}

// Start creates (if not already created) and starts name's containerd
// task, returning the pid and start time the property engine records
// into raw_root_pid/raw_start_time.
func (r *ContainerdSupervisor) Start(ctx context.Context, name string) (collab.ProcessReport, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	spec, ok := r.specFor(name)
	if !ok {
		return collab.ProcessReport{}, fmt.Errorf("no spec configured for container %s", name)
	}

	c, err := r.client.LoadContainer(ctx, name)
	if err != nil {
		c, err = r.client.NewContainer(ctx, name, containerd.WithNewSpec(ociSpecOpts(spec)...))
		if err != nil {
			return collab.ProcessReport{}, fmt.Errorf("create container %s: %w", name, err)
		}
	}

	task, err := c.NewTask(ctx, cio.NullIO)
	if err != nil {
		return collab.ProcessReport{}, fmt.Errorf("create task %s: %w", name, err)
	}
	if err := task.Start(ctx); err != nil {
		return collab.ProcessReport{}, fmt.Errorf("start task %s: %w", name, err)
	}

	pid := int(task.Pid())
	return collab.ProcessReport{
		Pid:       pid,
		VPid:      pid,
		WaitPid:   pid,
		StartTime: time.Now().UnixMilli(),
	}, nil
}

// Stop sends SIGTERM, waits up to 10s for exit, then escalates to
// SIGKILL before deleting the task.
func (r *ContainerdSupervisor) Stop(ctx context.Context, name string) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	c, err := r.client.LoadContainer(ctx, name)
	if err != nil {
		return nil
	}
	task, err := c.Task(ctx, nil)
	if err != nil {
		// No task means the container is already stopped.
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("SIGTERM %s: %w", name, err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("wait %s: %w", name, err)
	}

	select {
	case <-statusC:
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("SIGKILL %s: %w", name, err)
		}
	}

	if _, err := task.Delete(ctx); err != nil {
		return fmt.Errorf("delete task %s: %w", name, err)
	}
	return nil
}

// Pause freezes name's entry command via containerd's task freezer.
func (r *ContainerdSupervisor) Pause(ctx context.Context, name string) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	task, err := r.taskFor(ctx, name)
	if err != nil {
		return err
	}
	return task.Pause(ctx)
}

// Resume thaws a previously Paused entry command.
func (r *ContainerdSupervisor) Resume(ctx context.Context, name string) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	task, err := r.taskFor(ctx, name)
	if err != nil {
		return err
	}
	return task.Resume(ctx)
}

// Kill sends an arbitrary signal to name's entry command.
func (r *ContainerdSupervisor) Kill(ctx context.Context, name string, signal int) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	task, err := r.taskFor(ctx, name)
	if err != nil {
		return err
	}
	return task.Kill(ctx, syscall.Signal(signal))
}

func (r *ContainerdSupervisor) taskFor(ctx context.Context, name string) (containerd.Task, error) {
	c, err := r.client.LoadContainer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load container %s: %w", name, err)
	}
	return c.Task(ctx, nil)
}
