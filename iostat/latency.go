// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import "time"

type LatencyBucket uint8

const (
	LatLess200us LatencyBucket = iota
	LatLess400us
	LatLess600us
	LatLess800us
	LatLess1ms
	LatLess10ms
	LatLess100ms
	LatMore100ms

	NumBuckets = int(LatMore100ms) + 1
)

// exclusive upper bounds of all buckets but the last
var latencyBounds = [...]time.Duration{
	200 * time.Microsecond,
	400 * time.Microsecond,
	600 * time.Microsecond,
	800 * time.Microsecond,
	time.Millisecond,
	10 * time.Millisecond,
	100 * time.Millisecond,
}

var bucketNames = [...]string{
	"LessThan200us", "LessThan400us", "LessThan600us", "LessThan800us",
	"LessThan1ms", "LessThan10ms", "LessThan100ms", "MoreThan100ms",
}

var (
	_ = [1]struct{}{}[len(latencyBounds)-(NumBuckets-1)]
	_ = [1]struct{}{}[len(bucketNames)-NumBuckets]
)

// Classify maps a duration to the first bucket whose bound it is below,
// clamped to the last one; negative durations land in the first bucket.
func Classify(d time.Duration) LatencyBucket {
	for i, bound := range latencyBounds {
		if d < bound {
			return LatencyBucket(i)
		}
	}
	return LatMore100ms
}

func (b LatencyBucket) String() string {
	if int(b) < NumBuckets {
		return bucketNames[b]
	}
	return "invalid"
}

// UpperBound returns the exclusive upper bound; false for the last (unbounded) bucket.
func (b LatencyBucket) UpperBound() (time.Duration, bool) {
	if int(b) < len(latencyBounds) {
		return latencyBounds[b], true
	}
	return 0, false
}
