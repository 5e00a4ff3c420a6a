// Package report turns statistics table snapshots into fixed-shape relational rows.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package report

import (
	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/mono"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/sys"
)

const dfltSampleWorkers = 8

type (
	// enumerates backends in ascending slot order
	Registry interface {
		Backends() []registry.Backend
	}
	// per-pid CPU and memory; errors are row-local
	Sampler interface {
		ProcessStats(pid int) (sys.ProcStats, error)
	}

	Args struct {
		Table    *iostat.Table // nil: statistics unavailable
		Registry Registry
		Sampler  Sampler      // nil: CPU and memory columns are always null
		Clock    iostat.Clock // wait times; must be the clock the writers use
		Workers  int          // max concurrent samplers
	}

	Reporter struct {
		table   *iostat.Table
		reg     Registry
		sampler Sampler
		now     iostat.Clock
		workers int
	}
)

func New(args *Args) *Reporter {
	r := &Reporter{
		table:   args.Table,
		reg:     args.Registry,
		sampler: args.Sampler,
		now:     args.Clock,
		workers: args.Workers,
	}
	if r.now == nil {
		r.now = mono.NanoTime
	}
	if r.workers <= 0 {
		r.workers = dfltSampleWorkers
	}
	return r
}

func (r *Reporter) Table() *iostat.Table { return r.table }

func (r *Reporter) unavailable() error {
	if r.table == nil {
		return cos.NewErrStatsUnavailable("")
	}
	return nil
}
