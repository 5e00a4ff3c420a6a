// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report

import "github.com/NVIDIA/procio/iostat"

type (
	// Totals aggregates all live slots of the table, summed across categories.
	Totals struct {
		Cells    [iostat.NumLocations]iostat.CellSnap
		Dist     [iostat.NumLocations][iostat.NumKinds][iostat.NumBuckets]uint64
		Live     int
		Capacity int
	}
	// TotalsRow is one (location, kind) line of Totals.
	TotalsRow struct {
		Location string                    `json:"io_location"`
		Kind     string                    `json:"io_kind"`
		Buckets  [iostat.NumBuckets]uint64 `json:"buckets"`
		Count    uint64                    `json:"count"`
		Bytes    uint64                    `json:"bytes"`
		TimeMs   float64                   `json:"time_ms"`
	}
)

func (r *Reporter) Totals() (*Totals, error) {
	if err := r.unavailable(); err != nil {
		return nil, err
	}
	var (
		snap iostat.SlotSnap
		tot  = &Totals{Capacity: r.table.Capacity()}
	)
	r.table.Range(&snap, func(s *iostat.SlotSnap) bool {
		tot.add(s)
		return true
	})
	return tot, nil
}

func (tot *Totals) add(s *iostat.SlotSnap) {
	tot.Live++
	for cat := range s.Cells {
		for loc := range s.Cells[cat] {
			tot.Cells[loc].Add(&s.Cells[cat][loc])
		}
	}
	for loc := range s.Dist {
		for kind := range s.Dist[loc] {
			for b, n := range s.Dist[loc][kind] {
				tot.Dist[loc][kind][b] += n
			}
		}
	}
}

// Bytes returns read bytes for OpRead, written bytes for OpWrite, zero otherwise.
func (tot *Totals) Bytes(loc iostat.Location, kind iostat.OpKind) uint64 {
	switch kind {
	case iostat.OpRead:
		return tot.Cells[loc].ReadBytes
	case iostat.OpWrite:
		return tot.Cells[loc].WriteBytes
	}
	return 0
}

func (tot *Totals) Rows() []TotalsRow {
	rows := make([]TotalsRow, 0, iostat.NumLocations*iostat.NumKinds)
	for _, loc := range iostat.ReportLocations {
		c := &tot.Cells[loc]
		for k := range iostat.NumKinds {
			kind := iostat.OpKind(k)
			rows = append(rows, TotalsRow{
				Location: loc.String(),
				Kind:     kind.String(),
				Count:    c.Count(kind),
				Bytes:    tot.Bytes(loc, kind),
				TimeMs:   toMs(c.Time(kind)),
				Buckets:  tot.Dist[loc][kind],
			})
		}
	}
	return rows
}
