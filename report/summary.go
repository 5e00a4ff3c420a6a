// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report

import (
	"time"

	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"

	"golang.org/x/sync/errgroup"
)

type (
	// LocIO is one location's I/O, summed across categories.
	LocIO struct {
		ReadOps      *int64 // count
		WriteOps     *int64 // count
		ReadBytes    *int64
		WriteBytes   *int64
		ReadLatency  *float64 // cumulative ms
		WriteLatency *float64 // cumulative ms
	}

	// ProcessRow is one summary row; nil fields are SQL NULLs.
	ProcessRow struct {
		Pid        *int32   `json:"pid" parquet:"pid"`
		WaitObject *int32   `json:"wait_object" parquet:"wait_object"`
		WaitTimeMs *float64 `json:"wait_time_ms" parquet:"wait_time_ms"`
		CPUUser    *int64   `json:"cpu_user" parquet:"cpu_user"`
		CPUSys     *int64   `json:"cpu_sys" parquet:"cpu_sys"`
		RSS        *int64   `json:"rss" parquet:"rss"`

		SharedReadPs         *int64   `json:"shared_read_ps" parquet:"shared_read_ps"`
		SharedWritePs        *int64   `json:"shared_write_ps" parquet:"shared_write_ps"`
		SharedReadBytes      *int64   `json:"shared_read_bytes" parquet:"shared_read_bytes"`
		SharedWriteBytes     *int64   `json:"shared_write_bytes" parquet:"shared_write_bytes"`
		SharedReadLatencyMs  *float64 `json:"shared_read_latency_ms" parquet:"shared_read_latency_ms"`
		SharedWriteLatencyMs *float64 `json:"shared_write_latency_ms" parquet:"shared_write_latency_ms"`

		LocalReadPs         *int64   `json:"local_read_ps" parquet:"local_read_ps"`
		LocalWritePs        *int64   `json:"local_write_ps" parquet:"local_write_ps"`
		LocalReadBytes      *int64   `json:"local_read_bytes" parquet:"local_read_bytes"`
		LocalWriteBytes     *int64   `json:"local_write_bytes" parquet:"local_write_bytes"`
		LocalReadLatencyMs  *float64 `json:"local_read_latency_ms" parquet:"local_read_latency_ms"`
		LocalWriteLatencyMs *float64 `json:"local_write_latency_ms" parquet:"local_write_latency_ms"`

		WaitType *string `json:"wait_type" parquet:"wait_type"`
		QueryID  *int64  `json:"query_id" parquet:"query_id"`
	}
)

func (row *ProcessRow) Values() []any {
	return []any{
		val(row.Pid), val(row.WaitObject), val(row.WaitTimeMs),
		val(row.CPUUser), val(row.CPUSys), val(row.RSS),
		val(row.SharedReadPs), val(row.SharedWritePs), val(row.SharedReadBytes), val(row.SharedWriteBytes),
		val(row.SharedReadLatencyMs), val(row.SharedWriteLatencyMs),
		val(row.LocalReadPs), val(row.LocalWritePs), val(row.LocalReadBytes), val(row.LocalWriteBytes),
		val(row.LocalReadLatencyMs), val(row.LocalWriteLatencyMs),
		val(row.WaitType), val(row.QueryID),
	}
}

// IO returns the six I/O columns of the given location.
func (row *ProcessRow) IO(loc iostat.Location) LocIO {
	if loc == iostat.LocShared {
		return LocIO{row.SharedReadPs, row.SharedWritePs, row.SharedReadBytes, row.SharedWriteBytes,
			row.SharedReadLatencyMs, row.SharedWriteLatencyMs}
	}
	return LocIO{row.LocalReadPs, row.LocalWritePs, row.LocalReadBytes, row.LocalWriteBytes,
		row.LocalReadLatencyMs, row.LocalWriteLatencyMs}
}

func (row *ProcessRow) setIO(snap *iostat.SlotSnap) {
	var sum [iostat.NumLocations]iostat.CellSnap
	for cat := range snap.Cells {
		for loc := range snap.Cells[cat] {
			sum[loc].Add(&snap.Cells[cat][loc])
		}
	}
	shared, local := &sum[iostat.LocShared], &sum[iostat.LocLocal]

	row.SharedReadPs = ptr(int64(shared.ReadCount))
	row.SharedWritePs = ptr(int64(shared.WriteCount))
	row.SharedReadBytes = ptr(int64(shared.ReadBytes))
	row.SharedWriteBytes = ptr(int64(shared.WriteBytes))
	row.SharedReadLatencyMs = ptr(toMs(shared.ReadTime))
	row.SharedWriteLatencyMs = ptr(toMs(shared.WriteTime))

	row.LocalReadPs = ptr(int64(local.ReadCount))
	row.LocalWritePs = ptr(int64(local.WriteCount))
	row.LocalReadBytes = ptr(int64(local.ReadBytes))
	row.LocalWriteBytes = ptr(int64(local.WriteBytes))
	row.LocalReadLatencyMs = ptr(toMs(local.ReadTime))
	row.LocalWriteLatencyMs = ptr(toMs(local.WriteTime))
}

func (row *ProcessRow) setWait(snap *iostat.SlotSnap, now int64) {
	if !snap.Waiting {
		return
	}
	elapsed, ok := snap.Wait.Elapsed(now)
	if !ok {
		return
	}
	row.WaitObject = ptr(snap.Wait.Object)
	row.WaitTimeMs = ptr(toMs(elapsed))
	row.WaitType = ptr(snap.Wait.Kind.String())
}

func toMs(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
func toUs(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }

// ProcessSummary returns exactly one row per registry-enumerated backend, in
// registry order. It never fails: missing data surfaces as null columns.
//
//   - backend without a process, or whose slot no longer belongs to it: all-null row
//   - no active wait (or zero elapsed): null wait columns
//   - sampling failure: null CPU and memory columns
//   - table unavailable: null I/O and wait columns (pid and sampling still reported)
//
// I/O latencies are cumulative since the process claimed its slot.
func (r *Reporter) ProcessSummary() []ProcessRow {
	var backends []registry.Backend
	if r.reg != nil {
		backends = r.reg.Backends()
	}
	rows := make([]ProcessRow, len(backends))
	if len(backends) == 0 {
		return rows
	}

	live := make([]bool, len(backends))
	var snap iostat.SlotSnap
	for i := range backends {
		b := &backends[i]
		if b.Pid <= 0 {
			continue
		}
		row := &rows[i]
		if r.table != nil {
			if !r.table.SnapshotOf(b.Slot, b.Pid, &snap) {
				continue // gone
			}
			row.setIO(&snap)
			row.setWait(&snap, r.now())
		}
		row.Pid = ptr(b.Pid)
		row.QueryID = ptr(b.QueryID)
		live[i] = true
	}

	if r.sampler == nil {
		return rows
	}
	// sample in parallel; each goroutine owns its row
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range backends {
		if !live[i] {
			continue
		}
		row, pid := &rows[i], int(backends[i].Pid)
		g.Go(func() error {
			stats, err := r.sampler.ProcessStats(pid)
			if err != nil {
				return nil // row-local
			}
			row.CPUUser = ptr(int64(stats.CPU.User))
			row.CPUSys = ptr(int64(stats.CPU.System))
			row.RSS = ptr(int64(stats.Mem.RSS()))
			return nil
		})
	}
	g.Wait()
	return rows
}
