package postgres

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsProvider exposes database/sql pool statistics
type StatsProvider interface {
	Stats() sql.DBStats
}

// PoolCollector exports connection pool statistics as prometheus metrics
type PoolCollector struct {
	provider StatsProvider

	openConnections *prometheus.Desc
	inUse           *prometheus.Desc
	idle            *prometheus.Desc
	waitCount       *prometheus.Desc
	waitSeconds     *prometheus.Desc
}

// NewPoolCollector creates a collector for the given pool
func NewPoolCollector(provider StatsProvider, dbName string) *PoolCollector {
	labels := prometheus.Labels{"db": dbName}
	return &PoolCollector{
		provider:        provider,
		openConnections: prometheus.NewDesc("medihort_db_open_connections", "Open connections to the database", nil, labels),
		inUse:           prometheus.NewDesc("medihort_db_in_use_connections", "Connections currently in use", nil, labels),
		idle:            prometheus.NewDesc("medihort_db_idle_connections", "Idle connections", nil, labels),
		waitCount:       prometheus.NewDesc("medihort_db_wait_count_total", "Connections waited for", nil, labels),
		waitSeconds:     prometheus.NewDesc("medihort_db_wait_seconds_total", "Time blocked waiting for a connection", nil, labels),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openConnections
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waitCount
	ch <- c.waitSeconds
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.provider.Stats()

	ch <- prometheus.MustNewConstMetric(c.openConnections, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitSeconds, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
