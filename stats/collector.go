// Package stats exports aggregated per-process I/O statistics to Prometheus
// and periodically logs them.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"time"

	"github.com/NVIDIA/procio/cmn/debug"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/report"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "procio"

type (
	// Source yields table-wide totals (see report.Reporter).
	Source interface {
		Totals() (*report.Totals, error)
	}

	Collector struct {
		src      Source
		up       *prometheus.Desc
		live     *prometheus.Desc
		capacity *prometheus.Desc
		ops      *prometheus.Desc
		bytes    *prometheus.Desc
		time     *prometheus.Desc
		closes   *prometheus.Desc
		latency  *prometheus.Desc
	}
)

// interface guard
var _ prometheus.Collector = (*Collector)(nil)

var (
	opLabels  = []string{"io_location", "io_kind"}
	locLabels = []string{"io_location"}
)

func NewCollector(src Source) *Collector {
	return &Collector{
		src: src,
		up: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "up"),
			"Whether the statistics table is available.", nil, nil),
		live: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "live_slots"),
			"Number of live statistics slots.", nil, nil),
		capacity: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "capacity_slots"),
			"Total number of statistics slots.", nil, nil),
		// the io counters sum live slots only and may go down (a counter reset)
		// once a slot is released
		ops: prometheus.NewDesc(prometheus.BuildFQName(namespace, "io", "ops_total"),
			"Number of file operations; summed over live slots, drops when a process exits.", opLabels, nil),
		bytes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "io", "bytes_total"),
			"Number of bytes read or written; summed over live slots, drops when a process exits.", opLabels, nil),
		time: prometheus.NewDesc(prometheus.BuildFQName(namespace, "io", "time_seconds_total"),
			"Cumulative time spent in file operations; summed over live slots, drops when a process exits.", opLabels, nil),
		closes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "io", "closes_total"),
			"Number of file closes; summed over live slots, drops when a process exits.", locLabels, nil),
		latency: prometheus.NewDesc(prometheus.BuildFQName(namespace, "io", "latency_seconds"),
			"File operation latency.", opLabels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.live
	ch <- c.capacity
	ch <- c.ops
	ch <- c.bytes
	ch <- c.time
	ch <- c.closes
	ch <- c.latency
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	tot, err := c.src.Totals()
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(tot.Live))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(tot.Capacity))

	for _, loc := range iostat.ReportLocations {
		var (
			cell = &tot.Cells[loc]
			ls   = loc.String()
		)
		ch <- prometheus.MustNewConstMetric(c.closes, prometheus.CounterValue, float64(cell.CloseCount), ls)
		for k := range iostat.NumKinds {
			kind := iostat.OpKind(k)
			ks := kind.String()
			ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(cell.Count(kind)), ls, ks)
			ch <- prometheus.MustNewConstMetric(c.time, prometheus.CounterValue, cell.Time(kind).Seconds(), ls, ks)
			switch kind {
			case iostat.OpRead, iostat.OpWrite:
				ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue,
					float64(tot.Bytes(loc, kind)), ls, ks)
			}
			ch <- c.histogram(&tot.Dist[loc][kind], cell.Time(kind), ls, ks)
		}
	}
}

// histogram converts (disjoint) latency buckets into cumulative Prometheus ones;
// the last, unbounded, bucket is implied by the total count.
func (c *Collector) histogram(dist *[iostat.NumBuckets]uint64, sum time.Duration, labels ...string) prometheus.Metric {
	var (
		count   uint64
		buckets = make(map[float64]uint64, iostat.NumBuckets-1)
	)
	for b, n := range dist {
		count += n
		bound, ok := iostat.LatencyBucket(b).UpperBound()
		if ok {
			buckets[bound.Seconds()] = count
		}
	}
	m, err := prometheus.NewConstHistogram(c.latency, count, sum.Seconds(), buckets, labels...)
	debug.AssertNoErr(err)
	return m
}
