package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Container metrics
	ContainersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "porto_containers_total",
			Help: "Total number of containers by state",
		},
		[]string{"state"},
	)

	ContainerOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_container_operations_total",
			Help: "Total number of container lifecycle operations by kind and outcome",
		},
		[]string{"operation", "status"},
	)

	ContainerOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "porto_container_operation_duration_seconds",
			Help:    "Container lifecycle operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Property engine metrics
	PropertyOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_property_operations_total",
			Help: "Total number of property Get/Set calls by property and outcome",
		},
		[]string{"property", "operation", "status"},
	)

	// Cgroup metrics
	CgroupOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_cgroup_operations_total",
			Help: "Total number of cgroup attach/detach/freeze operations by kind and outcome",
		},
		[]string{"operation", "status"},
	)

	// Storage metrics
	StorageOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "porto_storage_operation_duration_seconds",
			Help:    "Persisted-property storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Event bus metrics
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_events_published_total",
			Help: "Total number of events published on the broker by type",
		},
		[]string{"type"},
	)

	EventSubscribersCurrent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "porto_event_subscribers_current",
			Help: "Current number of active event subscribers",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ContainersTotal)
	prometheus.MustRegister(ContainerOperationsTotal)
	prometheus.MustRegister(ContainerOperationDuration)
	prometheus.MustRegister(PropertyOperationsTotal)
	prometheus.MustRegister(CgroupOperationsTotal)
	prometheus.MustRegister(StorageOperationDuration)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(EventSubscribersCurrent)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
