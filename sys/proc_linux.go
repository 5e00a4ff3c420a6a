// Package sys provides methods to read system information
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package sys

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/procio/cmn/cos"
)

const (
	procRoot = "/proc"
	ticks    = 100 // C.sysconf(C._SC_CLK_TCK)
	pageSh   = 12
)

// /proc/<pid>/stat: utime and stime are fields 14 and 15 (1-based),
// i.e. 11 and 12 counting from the state field that follows "(comm)"
const (
	statUtime = 11
	statStime = 12
)

func procMem(root string, pid int) (ProcMemStats, error) {
	mem := ProcMemStats{}

	procPath := filepath.Join(root, strconv.Itoa(pid), "statm")
	line, err := cos.ReadOneLine(procPath)
	if err != nil {
		return mem, err
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return mem, fmt.Errorf("%s: unexpected format %q", procPath, line)
	}
	val, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return mem, err
	}
	mem.Size = val << pageSh
	val, err = strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return mem, err
	}
	mem.Resident = val << pageSh
	val, err = strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return mem, err
	}
	mem.Share = val << pageSh

	return mem, nil
}

func procCPU(root string, pid int) (ProcCPUStats, error) {
	cpu := ProcCPUStats{}

	procPath := filepath.Join(root, strconv.Itoa(pid), "stat")
	line, err := cos.ReadOneLine(procPath)
	if err != nil {
		return cpu, err
	}

	// comm may contain spaces and parentheses
	i := strings.LastIndexByte(line, ')')
	if i < 0 {
		return cpu, fmt.Errorf("%s: unexpected format %q", procPath, line)
	}
	fields := strings.Fields(line[i+1:])
	if len(fields) <= statStime {
		return cpu, fmt.Errorf("%s: unexpected format %q", procPath, line)
	}
	user, err := strconv.ParseUint(fields[statUtime], 10, 64)
	if err != nil {
		return cpu, err
	}
	sys, err := strconv.ParseUint(fields[statStime], 10, 64)
	if err != nil {
		return cpu, err
	}

	// convert to milliseconds
	cpu.User = user * (1000 / ticks)
	cpu.System = sys * (1000 / ticks)
	cpu.Total = cpu.User + cpu.System

	return cpu, nil
}
