// Package cos provides common low-level types and utilities for all procio packages
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"
	"time"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

func ToSizeIEC(b int64, digits int) string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.*f%s", digits, float32(b)/float32(TiB), "TiB")
	case b >= GiB:
		return fmt.Sprintf("%.*f%s", digits, float32(b)/float32(GiB), "GiB")
	case b >= MiB:
		return fmt.Sprintf("%.*f%s", digits, float32(b)/float32(MiB), "MiB")
	case b >= KiB:
		return fmt.Sprintf("%.*f%s", digits, float32(b)/float32(KiB), "KiB")
	default:
		return fmt.Sprintf("%dB", b)
	}
}

func FormatBigNum(n int64) (s string) {
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	for n > 0 {
		rem := n % 1000
		n = (n - rem) / 1000
		switch {
		case s == "":
			s = fmt.Sprintf("%03d", rem)
		case n == 0:
			s = strconv.FormatInt(rem, 10) + "," + s
		default:
			s = fmt.Sprintf("%03d", rem) + "," + s
		}
	}
	return
}

func FormatMilli(tm time.Duration) string {
	milli := tm.Milliseconds()
	if milli > 0 {
		return fmt.Sprintf("%dms", milli)
	}
	micro := tm.Microseconds()
	if micro == 0 {
		return "0"
	}
	return fmt.Sprintf("%.2fms", float64(micro)/1000.0)
}

func DivRound(a, b int64) int64 { return (a + b/2) / b }
