// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import "time"

// what a process is blocked on
type WaitKind int32

const (
	WaitUnknown WaitKind = iota
	WaitPid
	WaitFd
)

func (k WaitKind) String() string {
	switch k {
	case WaitPid:
		return "pid"
	case WaitFd:
		return "fd"
	default:
		return "unknown"
	}
}

// Elapsed returns time spent waiting as of `now` (monotonic ns);
// false when the wait never started or the clock did not advance.
func (w *Wait) Elapsed(now int64) (time.Duration, bool) {
	if w.Start == 0 {
		return 0, false
	}
	d := now - w.Start
	if d <= 0 {
		return 0, false
	}
	return time.Duration(d), true
}
