package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/portod/pkg/collab"
	"github.com/cuemby/portod/pkg/config"
	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/events"
	"github.com/cuemby/portod/pkg/log"
	"github.com/cuemby/portod/pkg/metrics"
	"github.com/cuemby/portod/pkg/property"
	"github.com/cuemby/portod/pkg/runtime"
	"github.com/cuemby/portod/pkg/security"
	"github.com/cuemby/portod/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "portod",
	Short: "portod - container property and state daemon",
	Long: `portod manages a tree of containers through a flat property set:
resource limits, namespaces, capabilities, device access, and network
classifiers, all addressed by name rather than a fixed-shape config file.

Every mutation and restart goes through the same property dispatcher, so
a value set at runtime and a value restored from disk take the identical
validation path.`,
	Version: Version,
	RunE:    runDaemon,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"portod version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.Flags().String("config", "/etc/portod/portod.yaml", "Path to daemon config file")
	rootCmd.Flags().String("listen", "127.0.0.1:9090", "Address for the metrics/health HTTP endpoint")
	rootCmd.Flags().String("cgroup-root", "", "Cgroup v2 root for managed containers (defaults to runtime.DefaultCgroupRoot)")
	rootCmd.Flags().String("containerd-socket", "", "containerd socket path (defaults to runtime.DefaultSocketPath)")
}

// runDaemon wires every collaborator, restores the persisted container
// tree, and blocks until interrupted. There is deliberately no
// subcommand tree: unlike a cluster orchestrator's node/service/secret
// CLI, a single portod process manages exactly one local container tree,
// addressed over the property dispatcher rather than one RPC per noun.
func runDaemon(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	listenAddr, _ := cmd.Flags().GetString("listen")
	cgroupRoot, _ := cmd.Flags().GetString("cgroup-root")
	containerdSocket, _ := cmd.Flags().GetString("containerd-socket")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
		Output:     os.Stderr,
	})

	instanceID := uuid.New().String()
	log.Logger.Info().Str("instance", instanceID).Str("version", Version).Msg("starting portod")

	store, err := storage.NewBoltStore(filepath.Dir(cfg.Database))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	secrets, err := security.NewSecretsManagerFromPassword(instanceID)
	if err != nil {
		return fmt.Errorf("init secrets manager: %w", err)
	}
	persist := storage.NewBoltPersist(store, secrets)
	defer persist.Close()

	probe := runtime.NewCgroupProbe(cgroupRoot)
	registry := property.DefaultRegistry()
	registry.Init(probe)
	dispatcher := property.NewDispatcher(registry)

	tree := container.NewTree()
	broker := events.NewBroker()
	tree.Notifier = broker
	broker.Start()
	defer broker.Stop()

	supervisor, err := runtime.NewContainerdSupervisor(containerdSocket)
	if err != nil {
		return fmt.Errorf("connect to containerd: %w", err)
	}
	defer supervisor.Close()
	metrics.RegisterComponent("containerd", true, "")

	cgroups := runtime.NewCgroupManager(cgroupRoot)
	metrics.RegisterComponent("cgroup", true, "")
	metrics.RegisterComponent("storage", true, "")

	cfgCollab := collabConfig{cfg}

	baseCtx := func(c *container.Container) *property.Ctx {
		return &property.Ctx{
			Ctx:       context.Background(),
			Tree:      tree,
			C:         c,
			Client:    security.RootCred,
			Superuser: true,
			Config:    cfgCollab,
			Probe:     probe,
			Net:       noopNetwork{},
			Cgroup:    cgroups.ForContainer(container.AbsoluteName(c)),
		}
	}

	if err := restoreContainers(tree, dispatcher, persist, baseCtx); err != nil {
		log.Logger.Error().Err(err).Msg("restoring persisted containers")
	}

	collector := metrics.NewCollector(tree, broker)
	collector.Start()
	defer collector.Stop()

	metrics.SetVersion(Version)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())

	server := &http.Server{Addr: listenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	log.Logger.Info().Str("addr", listenAddr).Msg("metrics/health endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Logger.Info().Msg("shutting down")
	case err := <-errCh:
		log.Logger.Error().Err(err).Msg("fatal error")
	}

	_ = server.Close()
	return nil
}

// restoreContainers recreates every persisted container's tree node and
// replays its saved properties through SetFromRestore, in the same
// boot-time "read every bucket, replay every record" shape the original
// daemon uses to repopulate its in-memory tree after a restart.
func restoreContainers(tree *container.Tree, dispatcher *property.Dispatcher, persist *storage.BoltPersist, ctxFor func(*container.Container) *property.Ctx) error {
	names, err := persist.ListContainers()
	if err != nil {
		return fmt.Errorf("list persisted containers: %w", err)
	}
	sort.Strings(names)

	tree.Lock()
	defer tree.Unlock()

	for _, name := range names {
		c, err := ensureContainerPath(tree, name)
		if err != nil {
			log.Logger.Error().Err(err).Str("container", name).Msg("recreating container from persisted record")
			continue
		}

		props, err := persist.LoadProperties(name)
		if err != nil {
			log.Logger.Error().Err(err).Str("container", name).Msg("loading persisted properties")
			continue
		}

		ctx := ctxFor(c)
		for propName, value := range props {
			if err := dispatcher.SetFromRestore(ctx, propName, value); err != nil {
				log.Logger.Warn().Err(err).Str("container", name).Str("property", propName).Msg("restoring property")
			}
		}
	}
	return nil
}

// ensureContainerPath walks name's slash-separated segments, creating any
// missing intermediate container so a deeply nested persisted name (e.g.
// "a/b/c") restores even if "a" and "a/b" have no properties of their own.
func ensureContainerPath(tree *container.Tree, name string) (*container.Container, error) {
	if c, ok := tree.Lookup(name); ok {
		return c, nil
	}

	parent, ok := tree.Lookup("/")
	if !ok {
		return nil, fmt.Errorf("root container missing")
	}

	segments := strings.Split(name, "/")
	path := ""
	var current *container.Container = parent
	for _, leaf := range segments {
		if leaf == "" {
			continue
		}
		if path == "" {
			path = leaf
		} else {
			path = path + "/" + leaf
		}
		if c, ok := tree.Lookup(path); ok {
			current = c
			continue
		}
		c, err := tree.Create(current, leaf)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		current = c
	}
	return current, nil
}

// collabConfig adapts *config.Config to collab.Config; a distinct type
// keeps the config package itself free of any pkg/collab import.
type collabConfig struct {
	*config.Config
}

var _ collab.Config = collabConfig{}

// noopNetwork stands in for the network-device collaborator, which this
// daemon's scope does not implement: no containers ever report devices,
// so every net_* property simply observes zero counters.
type noopNetwork struct{}

func (noopNetwork) Devices(ctx context.Context) ([]collab.NetDevice, error) {
	return nil, nil
}

func (noopNetwork) AssignClass(ctx context.Context, device string, classID uint32) error {
	return nil
}

func (noopNetwork) Counters(ctx context.Context, device string) (rxBytes, txBytes, rxPackets, txPackets, rxDrops, txDrops, overlimits uint64, err error) {
	return 0, 0, 0, 0, 0, 0, 0, nil
}
