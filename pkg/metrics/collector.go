package metrics

import (
	"time"

	"github.com/cuemby/portod/pkg/container"
	"github.com/cuemby/portod/pkg/events"
)

// Collector periodically samples the container tree and event broker and
// publishes the result as gauges, on the same tick-driven shape the
// teacher's cluster collector uses.
type Collector struct {
	tree   *container.Tree
	broker *events.Broker
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over tree. broker is
// optional; pass nil to skip subscriber-count sampling.
func NewCollector(tree *container.Tree, broker *events.Broker) *Collector {
	return &Collector{
		tree:   tree,
		broker: broker,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectContainerMetrics()
	c.collectEventMetrics()
}

func (c *Collector) collectContainerMetrics() {
	c.tree.RLock()
	containers := c.tree.All()
	c.tree.RUnlock()

	counts := make(map[container.State]int)
	for _, ct := range containers {
		counts[ct.State]++
	}

	for state, count := range counts {
		ContainersTotal.WithLabelValues(state.String()).Set(float64(count))
	}
}

func (c *Collector) collectEventMetrics() {
	if c.broker == nil {
		return
	}
	EventSubscribersCurrent.Set(float64(c.broker.SubscriberCount()))
}
