package system

import (
	"runtime"
	"sync"
	"time"

	"csd-runlab/modules/platform/eventbus"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics holds local machine resource usage, shown next to the server's
// pushed metrics so a user can tell a slow client apart from a slow backend
type Metrics struct {
	CPUPercent float64   // CPU usage percentage (0-100)
	MemUsedGB  float64   // Memory used in GB
	MemTotalGB float64   // Total memory in GB
	MemPercent float64   // Memory usage percentage (0-100)
	LoadAvg1   float64   // 1 minute load average
	NumCPU     int       // Number of CPUs
	UpdatedAt  time.Time // When metrics were last updated
}

// Collector samples local system metrics periodically
type Collector struct {
	mu          sync.RWMutex
	metrics     Metrics
	refreshRate time.Duration
	bus         *eventbus.Bus
	stopCh      chan struct{}
	running     bool
}

// NewCollector creates a new metrics collector. bus may be nil.
func NewCollector(refreshRate time.Duration, bus *eventbus.Bus) *Collector {
	if refreshRate < time.Second {
		refreshRate = time.Second
	}
	return &Collector{
		refreshRate: refreshRate,
		bus:         bus,
		stopCh:      make(chan struct{}),
		metrics:     Metrics{NumCPU: runtime.NumCPU()},
	}
}

// Start begins collecting metrics periodically
func (c *Collector) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	// Initial collection
	c.collect()

	go func() {
		ticker := time.NewTicker(c.refreshRate)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	c.mu.Lock()
	if c.running {
		c.running = false
		close(c.stopCh)
	}
	c.mu.Unlock()
}

// Get returns the current metrics
func (c *Collector) Get() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// collect gathers all metrics
func (c *Collector) collect() {
	c.mu.Lock()

	c.collectCPU()
	c.collectMemory()
	c.collectLoadAvg()
	c.metrics.NumCPU = runtime.NumCPU()
	c.metrics.UpdatedAt = time.Now()

	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(eventbus.NewEvent(eventbus.EventMetricsUpdated).WithSource("system"))
	}
}

func (c *Collector) collectCPU() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return
	}
	c.metrics.CPUPercent = percents[0]
}

func (c *Collector) collectMemory() {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return
	}

	c.metrics.MemTotalGB = float64(vmStat.Total) / 1024 / 1024 / 1024
	c.metrics.MemUsedGB = float64(vmStat.Used) / 1024 / 1024 / 1024
	c.metrics.MemPercent = vmStat.UsedPercent
}

func (c *Collector) collectLoadAvg() {
	avgStat, err := load.Avg()
	if err != nil {
		// Load average not available on Windows
		c.metrics.LoadAvg1 = 0
		return
	}
	c.metrics.LoadAvg1 = avgStat.Load1
}
