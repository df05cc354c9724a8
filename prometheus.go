package halloc

import "github.com/prometheus/client_golang/prometheus"

// Collector exports arena statistics as Prometheus metrics. Register it
// with any prometheus.Registerer:
//
//	reg.MustRegister(halloc.NewCollector(mem))
//
// Each scrape takes one Metrics snapshot, so the ledger lock is held only
// briefly per collection.
type Collector struct {
	mem *Memory

	liveBytes   *prometheus.Desc
	liveRecords *prometheus.Desc
	allocsTotal *prometheus.Desc
	freesTotal  *prometheus.Desc
	leakedTotal *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector reporting on mem.
func NewCollector(mem *Memory) *Collector {
	return &Collector{
		mem: mem,
		liveBytes: prometheus.NewDesc(
			"halloc_live_bytes",
			"Bytes currently tracked by the allocation ledger.",
			nil, nil,
		),
		liveRecords: prometheus.NewDesc(
			"halloc_live_records",
			"Records currently tracked by the allocation ledger.",
			nil, nil,
		),
		allocsTotal: prometheus.NewDesc(
			"halloc_allocations_total",
			"Allocations performed over the arena's lifetime.",
			nil, nil,
		),
		freesTotal: prometheus.NewDesc(
			"halloc_frees_total",
			"Records released through the free path.",
			nil, nil,
		),
		leakedTotal: prometheus.NewDesc(
			"halloc_leaked_records_total",
			"Records abandoned by Close or a destructor failure.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liveBytes
	ch <- c.liveRecords
	ch <- c.allocsTotal
	ch <- c.freesTotal
	ch <- c.leakedTotal
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.mem.Metrics()
	ch <- prometheus.MustNewConstMetric(c.liveBytes, prometheus.GaugeValue, float64(s.LiveBytes))
	ch <- prometheus.MustNewConstMetric(c.liveRecords, prometheus.GaugeValue, float64(s.LiveRecords))
	ch <- prometheus.MustNewConstMetric(c.allocsTotal, prometheus.CounterValue, float64(s.TotalAllocs))
	ch <- prometheus.MustNewConstMetric(c.freesTotal, prometheus.CounterValue, float64(s.TotalFrees))
	ch <- prometheus.MustNewConstMetric(c.leakedTotal, prometheus.CounterValue, float64(s.Leaked))
}
