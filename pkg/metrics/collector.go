package metrics

import (
	"time"

	"github.com/kemeter/ring/pkg/storage"
)

// Collector periodically refreshes the gauges that reflect current state
// rather than a point-in-time event (deployments by namespace/status,
// config and user counts). Counters and histograms are updated directly by
// the packages that observe them (pkg/api, pkg/deploy, pkg/events,
// pkg/scheduler, pkg/runtime) and don't need a collector.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector builds a Collector reading from store.
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting on a 15 second tick, collecting immediately on
// call.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
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

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectDeploymentMetrics()
	c.collectConfigMetrics()
	c.collectUserMetrics()
}

func (c *Collector) collectDeploymentMetrics() {
	deployments, err := c.store.ListDeployments(storage.Filter{})
	if err != nil {
		return
	}

	counts := make(map[[2]string]int)
	for _, d := range deployments {
		counts[[2]string{d.Namespace, d.Status}]++
	}

	DeploymentsTotal.Reset()
	for key, count := range counts {
		DeploymentsTotal.WithLabelValues(key[0], key[1]).Set(float64(count))
	}
}

func (c *Collector) collectConfigMetrics() {
	configs, err := c.store.ListConfigs(storage.Filter{})
	if err != nil {
		return
	}
	ConfigsTotal.Set(float64(len(configs)))
}

func (c *Collector) collectUserMetrics() {
	users, err := c.store.ListUsers()
	if err != nil {
		return
	}
	UsersTotal.Set(float64(len(users)))
}
