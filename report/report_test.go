// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report_test

import (
	"errors"
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/sys"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type (
	fakeRegistry []registry.Backend
	fakeSampler  map[int]sys.ProcStats
)

func (r fakeRegistry) Backends() []registry.Backend { return r }

func (s fakeSampler) ProcessStats(pid int) (sys.ProcStats, error) {
	if stats, ok := s[pid]; ok {
		return stats, nil
	}
	return sys.ProcStats{}, cos.NewErrSamplingUnavailable(pid, errors.New("no such process"))
}

func procStats(user, system, resident, share uint64) sys.ProcStats {
	return sys.ProcStats{
		CPU: sys.ProcCPUStats{User: user, System: system, Total: user + system},
		Mem: sys.ProcMemStats{Resident: resident, Share: share},
	}
}

var _ = Describe("Reporter", func() {
	var (
		table   *iostat.Table
		now     int64
		clock   = func() int64 { return now }
		sampler fakeSampler
	)

	BeforeEach(func() {
		now = int64(time.Hour)
		table = iostat.NewTable(8)
		table.SetClock(clock)
		sampler = fakeSampler{}
	})

	newReporter := func(reg report.Registry) *report.Reporter {
		return report.New(&report.Args{Table: table, Registry: reg, Sampler: sampler, Clock: clock, Workers: 2})
	}

	Describe("ProcessSummary", func() {
		It("should report the current wait and its elapsed time", func() {
			Expect(table.Claim(1, 50)).To(BeTrue())
			w := table.Writer(1)
			w.BeginWait(17, iostat.WaitFd)
			now += int64(10 * time.Millisecond)

			rows := newReporter(fakeRegistry{{Slot: 1, Pid: 50}}).ProcessSummary()
			Expect(rows).To(HaveLen(1))
			row := rows[0]
			Expect(*row.Pid).To(BeEquivalentTo(50))
			Expect(row.WaitObject).NotTo(BeNil())
			Expect(*row.WaitObject).To(BeEquivalentTo(17))
			Expect(*row.WaitType).To(Equal("fd"))
			Expect(*row.WaitTimeMs).To(BeNumerically("~", 10, 0.001))

			w.EndWait()
			rows = newReporter(fakeRegistry{{Slot: 1, Pid: 50}}).ProcessSummary()
			Expect(rows[0].WaitObject).To(BeNil())
			Expect(rows[0].WaitTimeMs).To(BeNil())
			Expect(rows[0].WaitType).To(BeNil())
		})

		It("should null the wait columns when no time has elapsed", func() {
			Expect(table.Claim(1, 50)).To(BeTrue())
			table.Writer(1).BeginWait(3, iostat.WaitPid)
			row := newReporter(fakeRegistry{{Slot: 1, Pid: 50}}).ProcessSummary()[0]
			Expect(row.Pid).NotTo(BeNil())
			Expect(row.WaitObject).To(BeNil())
			Expect(row.WaitType).To(BeNil())
		})

		It("should sum I/O across categories per location", func() {
			Expect(table.Claim(3, 1234)).To(BeTrue())
			w := table.Writer(3)
			for range 3 {
				w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, 500*time.Microsecond, 8192)
			}
			w.RecordOp(iostat.CatData, iostat.LocShared, iostat.OpRead, 2*time.Millisecond, 100)
			w.RecordOp(iostat.CatCLOG, iostat.LocShared, iostat.OpRead, time.Millisecond, 50)
			w.RecordOp(iostat.CatOthers, iostat.LocLocal, iostat.OpWrite, time.Millisecond, 10)
			sampler[1234] = procStats(250, 70, 300<<12, 100<<12)

			rows := newReporter(fakeRegistry{{Slot: 3, Pid: 1234, QueryID: 9}}).ProcessSummary()
			Expect(rows).To(HaveLen(1))
			row := rows[0]
			Expect(*row.SharedWritePs).To(BeEquivalentTo(3))
			Expect(*row.SharedWriteBytes).To(BeEquivalentTo(24576))
			Expect(*row.SharedWriteLatencyMs).To(BeNumerically("~", 1.5, 1e-9))
			Expect(*row.SharedReadPs).To(BeEquivalentTo(2))
			Expect(*row.SharedReadBytes).To(BeEquivalentTo(150))
			Expect(*row.SharedReadLatencyMs).To(BeNumerically("~", 3, 1e-9))
			Expect(*row.LocalWritePs).To(BeEquivalentTo(1))
			Expect(*row.LocalReadPs).To(BeEquivalentTo(0))
			Expect(*row.CPUUser).To(BeEquivalentTo(250))
			Expect(*row.CPUSys).To(BeEquivalentTo(70))
			Expect(*row.RSS).To(BeEquivalentTo(200 << 12))
			Expect(*row.QueryID).To(BeEquivalentTo(9))

			io := row.IO(iostat.LocShared)
			Expect(*io.WriteOps).To(BeEquivalentTo(3))
		})

		It("should null only the sampled columns when sampling fails", func() {
			Expect(table.Claim(1, 51)).To(BeTrue())
			Expect(table.Claim(2, 52)).To(BeTrue())
			sampler[52] = procStats(1, 2, 3, 0)

			rows := newReporter(fakeRegistry{{Slot: 1, Pid: 51}, {Slot: 2, Pid: 52}}).ProcessSummary()
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Pid).NotTo(BeNil())
			Expect(rows[0].CPUUser).To(BeNil())
			Expect(rows[0].CPUSys).To(BeNil())
			Expect(rows[0].RSS).To(BeNil())
			Expect(rows[0].SharedReadPs).NotTo(BeNil())
			Expect(*rows[1].CPUSys).To(BeEquivalentTo(2))
		})

		It("should emit all-null rows for gone and process-less backends", func() {
			Expect(table.Claim(2, 78)).To(BeTrue())
			Expect(table.Claim(4, 40)).To(BeTrue())
			sampler[40] = procStats(1, 1, 1, 0)
			reg := fakeRegistry{
				{Slot: 1},                      // no process
				{Slot: 2, Pid: 77, QueryID: 5}, // slot now belongs to another pid
				{Slot: 3, Pid: 33},             // slot never claimed
				{Slot: 4, Pid: 40},
			}
			rows := newReporter(reg).ProcessSummary()
			Expect(rows).To(HaveLen(len(reg)))
			for i := range 3 {
				for _, v := range rows[i].Values() {
					Expect(v).To(BeNil())
				}
			}
			Expect(*rows[3].Pid).To(BeEquivalentTo(40))
		})

		It("should null I/O columns, not fail, when the table is unavailable", func() {
			sampler[61] = procStats(5, 6, 7, 0)
			reg := fakeRegistry{{Slot: 1, Pid: 61}, {Slot: 2, Pid: 62}}
			r := report.New(&report.Args{Registry: reg, Sampler: sampler})
			rows := r.ProcessSummary()
			Expect(rows).To(HaveLen(2))
			for i := range rows {
				Expect(rows[i].Pid).NotTo(BeNil())
				loc := rows[i].IO(iostat.LocLocal)
				Expect(loc.ReadOps).To(BeNil())
				Expect(loc.WriteLatency).To(BeNil())
				Expect(rows[i].SharedWriteBytes).To(BeNil())
				Expect(rows[i].WaitObject).To(BeNil())
			}
			Expect(*rows[0].CPUUser).To(BeEquivalentTo(5))
			Expect(rows[1].CPUUser).To(BeNil())
		})

		It("should return values in column order", func() {
			Expect(table.Claim(1, 70)).To(BeTrue())
			rows := newReporter(fakeRegistry{{Slot: 1, Pid: 70, QueryID: 8}}).ProcessSummary()
			vals := rows[0].Values()
			Expect(vals).To(HaveLen(len(report.SummaryColumns)))
			Expect(vals[0]).To(Equal(int32(70)))
			Expect(vals[3]).To(BeNil()) // cpu_user: not sampled
			Expect(vals[6]).To(Equal(int64(0)))
			Expect(vals[len(vals)-1]).To(Equal(int64(8)))
		})
	})

	Describe("IODetailByCategory", func() {
		It("should fail when the table is unavailable", func() {
			r := report.New(&report.Args{Registry: fakeRegistry{}})
			_, err := r.IODetailByCategory()
			Expect(cos.IsErrStatsUnavailable(err)).To(BeTrue())
			_, err = r.LatencyHistogram()
			Expect(cos.IsErrStatsUnavailable(err)).To(BeTrue())
			_, err = r.Totals()
			Expect(cos.IsErrStatsUnavailable(err)).To(BeTrue())
		})

		It("should emit one row per category and location for live slots only", func() {
			Expect(table.Claim(2, 20)).To(BeTrue())
			Expect(table.Claim(5, 50)).To(BeTrue())
			Expect(table.Claim(6, 60)).To(BeTrue())
			Expect(table.Release(6, 60)).To(BeTrue())
			w := table.Writer(5)
			w.RecordOp(iostat.CatData, iostat.LocLocal, iostat.OpRead, 2500*time.Microsecond, 4096)
			w.RecordOp(iostat.CatData, iostat.LocLocal, iostat.OpOpen, 10*time.Microsecond, 0)
			w.RecordClose(iostat.CatData, iostat.LocLocal)

			rows, err := newReporter(fakeRegistry{}).IODetailByCategory()
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2 * iostat.NumCategories * iostat.NumLocations))

			Expect(rows[0].Pid).To(BeEquivalentTo(20))
			Expect(rows[0].FileType).To(Equal("WAL"))
			Expect(rows[0].FileLocation).To(Equal("pfs"))
			Expect(rows[1].FileLocation).To(Equal("local"))

			// slot 5: DATA is the second category, local the second location
			data := rows[iostat.NumCategories*iostat.NumLocations+3]
			Expect(data.Pid).To(BeEquivalentTo(50))
			Expect(data.FileType).To(Equal("DATA"))
			Expect(data.FileLocation).To(Equal("local"))
			Expect(data.ReadCount).To(BeEquivalentTo(1))
			Expect(data.ReadBytes).To(BeEquivalentTo(4096))
			Expect(data.ReadLatency).To(BeNumerically("~", 2500, 1e-9))
			Expect(data.OpenCount).To(BeEquivalentTo(1))
			Expect(data.OpenLatency).To(BeNumerically("~", 10, 1e-9))
			Expect(data.CloseCount).To(BeEquivalentTo(1))
			Expect(data.Values()).To(HaveLen(len(report.DetailColumns)))
		})
	})

	Describe("LatencyHistogram", func() {
		It("should emit one row per location and kind", func() {
			Expect(table.Claim(3, 1234)).To(BeTrue())
			w := table.Writer(3)
			for range 3 {
				w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, 500*time.Microsecond, 8192)
			}
			rows, err := newReporter(fakeRegistry{}).LatencyHistogram()
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(iostat.NumLocations * iostat.NumKinds))

			Expect(rows[0].IOLocation).To(Equal("local"))
			Expect(rows[iostat.NumKinds].IOLocation).To(Equal("pfs"))

			sharedWrite := iostat.NumKinds + int(iostat.OpWrite)
			shared := rows[sharedWrite]
			Expect(shared.Pid).To(BeEquivalentTo(1234))
			Expect(shared.IOLocation).To(Equal("pfs"))
			Expect(shared.IOKind).To(Equal("write"))
			Expect(shared.Buckets()).To(Equal([iostat.NumBuckets]int64{0, 0, 3, 0, 0, 0, 0, 0}))
			for i, row := range rows {
				if i == sharedWrite {
					continue
				}
				Expect(row.Buckets()).To(Equal([iostat.NumBuckets]int64{}))
			}
			vals := shared.Values()
			Expect(vals).To(HaveLen(len(report.LatencyColumns)))
			Expect(vals[5]).To(Equal(int64(3)))
		})
	})

	Describe("Totals", func() {
		It("should aggregate live slots", func() {
			Expect(table.Claim(1, 10)).To(BeTrue())
			Expect(table.Claim(2, 20)).To(BeTrue())
			table.Writer(1).RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, time.Millisecond, 100)
			table.Writer(2).RecordOp(iostat.CatData, iostat.LocShared, iostat.OpWrite, time.Millisecond, 200)

			tot, err := newReporter(fakeRegistry{}).Totals()
			Expect(err).NotTo(HaveOccurred())
			Expect(tot.Live).To(Equal(2))
			Expect(tot.Capacity).To(Equal(8))
			Expect(tot.Bytes(iostat.LocShared, iostat.OpWrite)).To(BeEquivalentTo(300))

			rows := tot.Rows()
			Expect(rows).To(HaveLen(iostat.NumLocations * iostat.NumKinds))
			Expect(rows[int(iostat.OpWrite)].Count).To(BeEquivalentTo(2))
			Expect(rows[int(iostat.OpWrite)].TimeMs).To(BeNumerically("~", 2, 1e-9))
			Expect(rows[int(iostat.OpWrite)].Buckets[iostat.LatLess10ms]).To(BeEquivalentTo(2))
		})
	})

	It("should describe columns", func() {
		Expect(report.SummaryColumns).To(HaveLen(20))
		Expect(report.DetailColumns).To(HaveLen(20))
		Expect(report.ColumnNames(report.LatencyColumns)).To(Equal([]string{"pid", "io_location", "io_kind",
			"bucket_0", "bucket_1", "bucket_2", "bucket_3", "bucket_4", "bucket_5", "bucket_6", "bucket_7"}))
	})
})
