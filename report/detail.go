// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report

import "github.com/NVIDIA/procio/iostat"

type (
	// IORow is one (process, category, location) row; latencies are
	// cumulative microseconds.
	IORow struct {
		FileType      string  `json:"file_type" parquet:"file_type"`
		FileLocation  string  `json:"file_location" parquet:"file_location"`
		OpenCount     int64   `json:"open_count" parquet:"open_count"`
		OpenLatency   float64 `json:"open_latency" parquet:"open_latency"`
		CloseCount    int64   `json:"close_count" parquet:"close_count"`
		ReadCount     int64   `json:"read_count" parquet:"read_count"`
		WriteCount    int64   `json:"write_count" parquet:"write_count"`
		ReadBytes     int64   `json:"read_bytes" parquet:"read_bytes"`
		WriteBytes    int64   `json:"write_bytes" parquet:"write_bytes"`
		ReadLatency   float64 `json:"read_latency" parquet:"read_latency"`
		WriteLatency  float64 `json:"write_latency" parquet:"write_latency"`
		SeekCount     int64   `json:"seek_count" parquet:"seek_count"`
		SeekLatency   float64 `json:"seek_latency" parquet:"seek_latency"`
		CreatCount    int64   `json:"creat_count" parquet:"creat_count"`
		CreatLatency  float64 `json:"creat_latency" parquet:"creat_latency"`
		FsyncCount    int64   `json:"fsync_count" parquet:"fsync_count"`
		FsyncLatency  float64 `json:"fsync_latency" parquet:"fsync_latency"`
		FallocCount   int64   `json:"falloc_count" parquet:"falloc_count"`
		FallocLatency float64 `json:"falloc_latency" parquet:"falloc_latency"`
		Pid           int32   `json:"pid" parquet:"pid"`
	}

	// LatencyRow is one (process, location, kind) latency distribution;
	// bucket i counts operations that fell into iostat.LatencyBucket(i).
	LatencyRow struct {
		IOLocation string `json:"io_location" parquet:"io_location"`
		IOKind     string `json:"io_kind" parquet:"io_kind"`
		Bucket0    int64  `json:"bucket_0" parquet:"bucket_0"`
		Bucket1    int64  `json:"bucket_1" parquet:"bucket_1"`
		Bucket2    int64  `json:"bucket_2" parquet:"bucket_2"`
		Bucket3    int64  `json:"bucket_3" parquet:"bucket_3"`
		Bucket4    int64  `json:"bucket_4" parquet:"bucket_4"`
		Bucket5    int64  `json:"bucket_5" parquet:"bucket_5"`
		Bucket6    int64  `json:"bucket_6" parquet:"bucket_6"`
		Bucket7    int64  `json:"bucket_7" parquet:"bucket_7"`
		Pid        int32  `json:"pid" parquet:"pid"`
	}
)

func (row *IORow) Values() []any {
	return []any{
		row.Pid, row.FileType, row.FileLocation,
		row.OpenCount, row.OpenLatency, row.CloseCount,
		row.ReadCount, row.WriteCount, row.ReadBytes, row.WriteBytes,
		row.ReadLatency, row.WriteLatency,
		row.SeekCount, row.SeekLatency,
		row.CreatCount, row.CreatLatency,
		row.FsyncCount, row.FsyncLatency,
		row.FallocCount, row.FallocLatency,
	}
}

// compile-time: one field per bucket
var _ = [1]struct{}{}[iostat.NumBuckets-8]

func (row *LatencyRow) Buckets() [iostat.NumBuckets]int64 {
	return [iostat.NumBuckets]int64{row.Bucket0, row.Bucket1, row.Bucket2, row.Bucket3,
		row.Bucket4, row.Bucket5, row.Bucket6, row.Bucket7}
}

func (row *LatencyRow) setBuckets(dist *[iostat.NumBuckets]uint64) {
	row.Bucket0, row.Bucket1 = int64(dist[0]), int64(dist[1])
	row.Bucket2, row.Bucket3 = int64(dist[2]), int64(dist[3])
	row.Bucket4, row.Bucket5 = int64(dist[4]), int64(dist[5])
	row.Bucket6, row.Bucket7 = int64(dist[6]), int64(dist[7])
}

func (row *LatencyRow) Values() []any {
	out := make([]any, 0, 3+iostat.NumBuckets)
	out = append(out, row.Pid, row.IOLocation, row.IOKind)
	for _, n := range row.Buckets() {
		out = append(out, n)
	}
	return out
}

func newIORow(pid int32, cat iostat.DirCategory, loc iostat.Location, c *iostat.CellSnap) IORow {
	return IORow{
		Pid:           pid,
		FileType:      cat.String(),
		FileLocation:  loc.String(),
		OpenCount:     int64(c.OpenCount),
		OpenLatency:   toUs(c.OpenTime),
		CloseCount:    int64(c.CloseCount),
		ReadCount:     int64(c.ReadCount),
		WriteCount:    int64(c.WriteCount),
		ReadBytes:     int64(c.ReadBytes),
		WriteBytes:    int64(c.WriteBytes),
		ReadLatency:   toUs(c.ReadTime),
		WriteLatency:  toUs(c.WriteTime),
		SeekCount:     int64(c.SeekCount),
		SeekLatency:   toUs(c.SeekTime),
		CreatCount:    int64(c.CreateCount),
		CreatLatency:  toUs(c.CreateTime),
		FsyncCount:    int64(c.FsyncCount),
		FsyncLatency:  toUs(c.FsyncTime),
		FallocCount:   int64(c.FallocCount),
		FallocLatency: toUs(c.FallocTime),
	}
}

// IODetailByCategory emits, for every live slot, one row per (category, location),
// with locations ordered pfs, local. Slots that are free or change hands while
// being read are skipped.
func (r *Reporter) IODetailByCategory() ([]IORow, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	var (
		snap iostat.SlotSnap
		rows []IORow
	)
	r.table.Range(&snap, func(s *iostat.SlotSnap) bool {
		for cat := range iostat.NumCategories {
			for _, loc := range iostat.ReportLocations {
				rows = append(rows, newIORow(s.Pid, iostat.DirCategory(cat), loc, &s.Cells[cat][loc]))
			}
		}
		return true
	})
	return rows, nil
}

// LatencyHistogram emits, for every live slot, one row per (location, kind),
// locations in ordinal order (local, pfs).
func (r *Reporter) LatencyHistogram() ([]LatencyRow, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	var (
		snap iostat.SlotSnap
		rows []LatencyRow
	)
	r.table.Range(&snap, func(s *iostat.SlotSnap) bool {
		for l := range iostat.NumLocations {
			loc := iostat.Location(l)
			for kind := range iostat.NumKinds {
				row := LatencyRow{Pid: s.Pid, IOLocation: loc.String(), IOKind: iostat.OpKind(kind).String()}
				row.setBuckets(&s.Dist[loc][kind])
				rows = append(rows, row)
			}
		}
		return true
	})
	return rows, nil
}
