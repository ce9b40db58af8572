/*
Package metrics provides Prometheus metrics collection and exposition for
the container property engine.

The package defines and registers all porto_* metrics using the Prometheus
client library, giving observability into container counts by state,
property Get/Set traffic, cgroup operations, storage latency, and the
event broker's subscriber count. Metrics are exposed via an HTTP endpoint
for scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Container: count by state, lifecycle ops   │          │
	│  │  Property: Get/Set calls, outcome            │          │
	│  │  Cgroup: attach/detach/freeze operations     │          │
	│  │  Storage: persisted-property op latency      │          │
	│  │  Events: publish count, subscriber count     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Collector                          │          │
	│  │  - Ticks every 15s                           │          │
	│  │  - Walks container.Tree for state counts     │          │
	│  │  - Samples events.Broker subscriber count    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init

Gauge Metrics:
  - porto_containers_total{state}
  - porto_event_subscribers_current

Counter Metrics:
  - porto_container_operations_total{operation, status}
  - porto_property_operations_total{property, operation, status}
  - porto_cgroup_operations_total{operation, status}
  - porto_events_published_total{type}

Histogram Metrics:
  - porto_container_operation_duration_seconds{operation}
  - porto_storage_operation_duration_seconds{operation}

Timer Helper:
  - Start timer, observe duration to a histogram or histogram vector

Collector:
  - Periodically snapshots the container tree's per-state counts and the
    event broker's current subscriber count into the gauges above. The
    counter and histogram metrics are registered and exported, but
    neither the collector nor any other package in this repository
    updates them.

# Usage

Updating gauge metrics from the collector:

	collector := metrics.NewCollector(tree, broker)
	collector.Start()
	defer collector.Stop()

Recording an operation inline at the call site:

	timer := metrics.NewTimer()
	err := supervisor.Start(ctx, name)
	timer.ObserveDurationVec(metrics.ContainerOperationDuration, "start")
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ContainerOperationsTotal.WithLabelValues("start", status).Inc()

Exposing the endpoint:

	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
	http.Handle("/ready", metrics.ReadyHandler())
	http.Handle("/live", metrics.LivenessHandler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate
    registration, so a double-import is caught immediately rather than
    silently dropping a metric.

Label Discipline:
  - Labels are bounded sets (container state, operation name, ok/error),
    never container names or pids — those belong in structured log
    fields, not metric labels.

Health vs. Readiness:
  - GetHealth reports every registered component's status regardless of
    criticality; GetReadiness additionally fails closed when containerd,
    cgroup, or storage haven't registered yet, so a load balancer can
    hold traffic during daemon startup without depending on health
    alone.

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
