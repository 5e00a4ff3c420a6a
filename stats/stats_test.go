// Package stats exports aggregated per-process I/O statistics to Prometheus
// and periodically logs them.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"strings"
	"time"

	"github.com/NVIDIA/procio/hk"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/stats"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

type fakeHK struct {
	cbs map[string]hk.Callback
}

func (f *fakeHK) Reg(name string, cb hk.Callback, _ time.Duration) { f.cbs[name] = cb }
func (f *fakeHK) Unreg(name string)                                { delete(f.cbs, name) }

func findMetric(mfs []*dto.MetricFamily, name, loc, kind string) *dto.Metric {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			var l, k string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "io_location":
					l = lp.GetValue()
				case "io_kind":
					k = lp.GetValue()
				}
			}
			if l == loc && k == kind {
				return m
			}
		}
	}
	return nil
}

var _ = Describe("Stats", func() {
	var (
		table *iostat.Table
		rep   *report.Reporter
	)

	BeforeEach(func() {
		table = iostat.NewTable(4)
		Expect(table.Claim(1, 1001)).To(BeTrue())
		w := table.Writer(1)
		for range 3 {
			w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, 500*time.Microsecond, 8192)
		}
		w.RecordOp(iostat.CatData, iostat.LocLocal, iostat.OpRead, 50*time.Millisecond, 4096)
		w.RecordClose(iostat.CatWAL, iostat.LocShared)
		rep = report.New(&report.Args{Table: table, Registry: registry.NewFromTable(table)})
	})

	Describe("Collector", func() {
		It("should export gauges and counters", func() {
			c := stats.NewCollector(rep)
			expected := `
# HELP procio_up Whether the statistics table is available.
# TYPE procio_up gauge
procio_up 1
# HELP procio_live_slots Number of live statistics slots.
# TYPE procio_live_slots gauge
procio_live_slots 1
# HELP procio_capacity_slots Total number of statistics slots.
# TYPE procio_capacity_slots gauge
procio_capacity_slots 4
# HELP procio_io_closes_total Number of file closes; summed over live slots, drops when a process exits.
# TYPE procio_io_closes_total counter
procio_io_closes_total{io_location="local"} 0
procio_io_closes_total{io_location="pfs"} 1
`
			err := testutil.CollectAndCompare(c, strings.NewReader(expected),
				"procio_up", "procio_live_slots", "procio_capacity_slots", "procio_io_closes_total")
			Expect(err).NotTo(HaveOccurred())

			n := iostat.NumLocations * iostat.NumKinds
			Expect(testutil.CollectAndCount(c, "procio_io_ops_total")).To(Equal(n))
			Expect(testutil.CollectAndCount(c, "procio_io_latency_seconds")).To(Equal(n))
			// bytes only for reads and writes
			Expect(testutil.CollectAndCount(c, "procio_io_bytes_total")).To(Equal(2 * iostat.NumLocations))
		})

		It("should convert latency buckets to cumulative histograms", func() {
			reg := prometheus.NewPedanticRegistry()
			reg.MustRegister(stats.NewCollector(rep))
			mfs, err := reg.Gather()
			Expect(err).NotTo(HaveOccurred())

			m := findMetric(mfs, "procio_io_ops_total", "pfs", "write")
			Expect(m).NotTo(BeNil())
			Expect(m.GetCounter().GetValue()).To(Equal(3.0))

			m = findMetric(mfs, "procio_io_bytes_total", "pfs", "write")
			Expect(m).NotTo(BeNil())
			Expect(m.GetCounter().GetValue()).To(Equal(24576.0))

			m = findMetric(mfs, "procio_io_time_seconds_total", "pfs", "write")
			Expect(m).NotTo(BeNil())
			Expect(m.GetCounter().GetValue()).To(BeNumerically("~", 0.0015, 1e-9))

			m = findMetric(mfs, "procio_io_latency_seconds", "pfs", "write")
			Expect(m).NotTo(BeNil())
			h := m.GetHistogram()
			Expect(h.GetSampleCount()).To(Equal(uint64(3)))
			Expect(h.GetBucket()).To(HaveLen(iostat.NumBuckets - 1))
			for _, b := range h.GetBucket() {
				switch {
				case b.GetUpperBound() < 0.0005:
					Expect(b.GetCumulativeCount()).To(BeZero())
				default:
					Expect(b.GetCumulativeCount()).To(Equal(uint64(3)))
				}
			}

			m = findMetric(mfs, "procio_io_latency_seconds", "local", "read")
			Expect(m).NotTo(BeNil())
			h = m.GetHistogram()
			Expect(h.GetSampleCount()).To(Equal(uint64(1)))
			for _, b := range h.GetBucket() {
				if b.GetUpperBound() <= 0.01 {
					Expect(b.GetCumulativeCount()).To(BeZero())
				} else {
					Expect(b.GetCumulativeCount()).To(Equal(uint64(1)))
				}
			}
		})

		It("should report down when the table is unavailable", func() {
			c := stats.NewCollector(report.New(&report.Args{}))
			expected := `
# HELP procio_up Whether the statistics table is available.
# TYPE procio_up gauge
procio_up 0
`
			Expect(testutil.CollectAndCompare(c, strings.NewReader(expected))).To(Succeed())
		})
	})

	Describe("Runner", func() {
		It("should log deltas only", func() {
			var (
				fake = &fakeHK{cbs: make(map[string]hk.Callback)}
				r    = stats.NewRunner(rep, time.Minute)
			)
			r.Reg(fake)
			Expect(fake.cbs).To(HaveLen(1))
			var cb hk.Callback
			for _, f := range fake.cbs {
				cb = f
			}

			Expect(cb(0)).To(Equal(time.Minute))
			Expect(r.Lines()).To(Equal(1))

			// nothing changed
			cb(0)
			Expect(r.Lines()).To(Equal(1))

			table.Writer(1).RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpFsync, time.Millisecond, 0)
			cb(0)
			Expect(r.Lines()).To(Equal(2))
			Expect(r.Last()).To(Equal("live 1/4, pfs.fsync 1 avg 1ms"))

			// slot released and another one claimed: totals shrink
			Expect(table.Release(1, 1001)).To(BeTrue())
			Expect(table.Claim(2, 1002)).To(BeTrue())
			table.Writer(2).RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, time.Millisecond, 16384)
			cb(0)
			Expect(r.Lines()).To(Equal(3))
			Expect(r.Last()).To(Equal("live 1/4 (reset), pfs.write 1 (16.0KiB) avg 1ms"))
			Expect(r.Last()).NotTo(ContainSubstring("-"))

			// steady after the reset
			cb(0)
			Expect(r.Lines()).To(Equal(3))

			Expect(table.Release(2, 1002)).To(BeTrue())
			cb(0)
			Expect(r.Lines()).To(Equal(4))
			Expect(r.Last()).To(Equal("live 0/4 (reset)"))

			r.Unreg(fake)
			Expect(fake.cbs).To(BeEmpty())
		})

		It("should keep quiet while the table is unavailable", func() {
			r := stats.NewRunner(report.New(&report.Args{}), time.Second)
			fake := &fakeHK{cbs: make(map[string]hk.Callback)}
			r.Reg(fake)
			for _, cb := range fake.cbs {
				Expect(cb(0)).To(Equal(time.Second))
			}
			Expect(r.Lines()).To(BeZero())
		})
	})
})
