// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report

import (
	"fmt"

	"github.com/NVIDIA/procio/iostat"
)

// column types
const (
	TypeInteger = "integer"
	TypeText    = "text"
	TypeBigint  = "bigint"
	TypeDouble  = "double"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var (
	SummaryColumns = []Column{
		{"pid", TypeInteger},
		{"wait_object", TypeInteger},
		{"wait_time_ms", TypeDouble},
		{"cpu_user", TypeBigint},
		{"cpu_sys", TypeBigint},
		{"rss", TypeBigint},
		{"shared_read_ps", TypeBigint},
		{"shared_write_ps", TypeBigint},
		{"shared_read_bytes", TypeBigint},
		{"shared_write_bytes", TypeBigint},
		{"shared_read_latency_ms", TypeDouble},
		{"shared_write_latency_ms", TypeDouble},
		{"local_read_ps", TypeBigint},
		{"local_write_ps", TypeBigint},
		{"local_read_bytes", TypeBigint},
		{"local_write_bytes", TypeBigint},
		{"local_read_latency_ms", TypeDouble},
		{"local_write_latency_ms", TypeDouble},
		{"wait_type", TypeText},
		{"query_id", TypeBigint},
	}
	DetailColumns = []Column{
		{"pid", TypeInteger},
		{"file_type", TypeText},
		{"file_location", TypeText},
		{"open_count", TypeBigint},
		{"open_latency", TypeDouble},
		{"close_count", TypeBigint},
		{"read_count", TypeBigint},
		{"write_count", TypeBigint},
		{"read_bytes", TypeBigint},
		{"write_bytes", TypeBigint},
		{"read_latency", TypeDouble},
		{"write_latency", TypeDouble},
		{"seek_count", TypeBigint},
		{"seek_latency", TypeDouble},
		{"creat_count", TypeBigint},
		{"creat_latency", TypeDouble},
		{"fsync_count", TypeBigint},
		{"fsync_latency", TypeDouble},
		{"falloc_count", TypeBigint},
		{"falloc_latency", TypeDouble},
	}
	LatencyColumns = latencyColumns()
)

func latencyColumns() []Column {
	cols := make([]Column, 0, 3+iostat.NumBuckets)
	cols = append(cols, Column{"pid", TypeInteger}, Column{"io_location", TypeText}, Column{"io_kind", TypeText})
	for b := range iostat.NumBuckets {
		cols = append(cols, Column{fmt.Sprintf("bucket_%d", b), TypeBigint})
	}
	return cols
}

// ColumnNames returns column names in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i := range cols {
		names[i] = cols[i].Name
	}
	return names
}

// nil for SQL NULL
func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptr[T any](v T) *T { return &v }
