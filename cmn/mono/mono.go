// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import (
	"time"
	_ "unsafe" // for go:linkname
)

// NanoTime returns CLOCK_MONOTONIC nanoseconds; the value is the same
// across all processes on the host, which is what wait timestamps
// stored in shared memory rely upon.
//
// https://golang.org/pkg/runtime/?m=all#nanotime
//
//go:linkname NanoTime runtime.nanotime
func NanoTime() int64

func Since(started int64) time.Duration { return time.Duration(NanoTime() - started) }
