// Package sys provides methods to read system information
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package sys

import "github.com/NVIDIA/procio/cmn/cos"

type (
	ProcCPUStats struct {
		User   uint64 // ms
		System uint64 // ms
		Total  uint64 // ms
	}

	ProcMemStats struct {
		Size     uint64
		Resident uint64
		Share    uint64
	}

	ProcStats struct {
		CPU ProcCPUStats
		Mem ProcMemStats
	}

	// ProcSampler reads per-process CPU and memory usage from procfs.
	ProcSampler struct {
		root string
	}
)

// RSS returns resident memory not shared with other processes.
func (m *ProcMemStats) RSS() uint64 {
	if m.Resident < m.Share {
		return 0
	}
	return m.Resident - m.Share
}

func NewSampler() *ProcSampler { return &ProcSampler{root: procRoot} }

// NewSamplerAt reads procfs mounted at `root`.
func NewSamplerAt(root string) *ProcSampler { return &ProcSampler{root: root} }

// ProcessStats samples `pid`; any failure is returned as ErrSamplingUnavailable.
func (ps *ProcSampler) ProcessStats(pid int) (ProcStats, error) {
	cpu, err := procCPU(ps.root, pid)
	if err != nil {
		return ProcStats{}, cos.NewErrSamplingUnavailable(pid, err)
	}
	mem, err := procMem(ps.root, pid)
	if err != nil {
		return ProcStats{}, cos.NewErrSamplingUnavailable(pid, err)
	}
	return ProcStats{CPU: cpu, Mem: mem}, nil
}

func ProcessStats(pid int) (ProcStats, error) {
	return NewSampler().ProcessStats(pid)
}
