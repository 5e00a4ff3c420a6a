// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import (
	ratomic "sync/atomic"
	"time"
)

type (
	// one per (category, location); written by the slot owner only
	cell struct {
		counts [NumKinds]uint64 // per-kind operation counts
		times  [NumKinds]int64  // per-kind cumulative duration, ns
		bytes  [2]uint64        // read, write
		closes uint64
	}
	// CellSnap is a copied-out (category, location) cell; durations are cumulative.
	CellSnap struct {
		OpenCount   uint64
		CloseCount  uint64
		ReadCount   uint64
		WriteCount  uint64
		SeekCount   uint64
		CreateCount uint64
		FsyncCount  uint64
		FallocCount uint64

		ReadBytes  uint64
		WriteBytes uint64

		OpenTime   time.Duration
		ReadTime   time.Duration
		WriteTime  time.Duration
		SeekTime   time.Duration
		CreateTime time.Duration
		FsyncTime  time.Duration
		FallocTime time.Duration
	}
)

func (c *CellSnap) Count(kind OpKind) uint64 {
	switch kind {
	case OpRead:
		return c.ReadCount
	case OpWrite:
		return c.WriteCount
	case OpOpen:
		return c.OpenCount
	case OpSeek:
		return c.SeekCount
	case OpCreate:
		return c.CreateCount
	case OpFsync:
		return c.FsyncCount
	case OpAllocate:
		return c.FallocCount
	}
	return 0
}

func (c *CellSnap) Time(kind OpKind) time.Duration {
	switch kind {
	case OpRead:
		return c.ReadTime
	case OpWrite:
		return c.WriteTime
	case OpOpen:
		return c.OpenTime
	case OpSeek:
		return c.SeekTime
	case OpCreate:
		return c.CreateTime
	case OpFsync:
		return c.FsyncTime
	case OpAllocate:
		return c.FallocTime
	}
	return 0
}

// Add accumulates other into c (used for totals).
func (c *CellSnap) Add(other *CellSnap) {
	c.OpenCount += other.OpenCount
	c.CloseCount += other.CloseCount
	c.ReadCount += other.ReadCount
	c.WriteCount += other.WriteCount
	c.SeekCount += other.SeekCount
	c.CreateCount += other.CreateCount
	c.FsyncCount += other.FsyncCount
	c.FallocCount += other.FallocCount
	c.ReadBytes += other.ReadBytes
	c.WriteBytes += other.WriteBytes
	c.OpenTime += other.OpenTime
	c.ReadTime += other.ReadTime
	c.WriteTime += other.WriteTime
	c.SeekTime += other.SeekTime
	c.CreateTime += other.CreateTime
	c.FsyncTime += other.FsyncTime
	c.FallocTime += other.FallocTime
}

func (c *cell) load(out *CellSnap) {
	out.ReadCount = ratomic.LoadUint64(&c.counts[OpRead])
	out.WriteCount = ratomic.LoadUint64(&c.counts[OpWrite])
	out.OpenCount = ratomic.LoadUint64(&c.counts[OpOpen])
	out.SeekCount = ratomic.LoadUint64(&c.counts[OpSeek])
	out.CreateCount = ratomic.LoadUint64(&c.counts[OpCreate])
	out.FsyncCount = ratomic.LoadUint64(&c.counts[OpFsync])
	out.FallocCount = ratomic.LoadUint64(&c.counts[OpAllocate])
	out.CloseCount = ratomic.LoadUint64(&c.closes)

	out.ReadBytes = ratomic.LoadUint64(&c.bytes[0])
	out.WriteBytes = ratomic.LoadUint64(&c.bytes[1])

	out.ReadTime = time.Duration(ratomic.LoadInt64(&c.times[OpRead]))
	out.WriteTime = time.Duration(ratomic.LoadInt64(&c.times[OpWrite]))
	out.OpenTime = time.Duration(ratomic.LoadInt64(&c.times[OpOpen]))
	out.SeekTime = time.Duration(ratomic.LoadInt64(&c.times[OpSeek]))
	out.CreateTime = time.Duration(ratomic.LoadInt64(&c.times[OpCreate]))
	out.FsyncTime = time.Duration(ratomic.LoadInt64(&c.times[OpFsync]))
	out.FallocTime = time.Duration(ratomic.LoadInt64(&c.times[OpAllocate]))
}

func (c *cell) zero() {
	for i := range c.counts {
		ratomic.StoreUint64(&c.counts[i], 0)
		ratomic.StoreInt64(&c.times[i], 0)
	}
	ratomic.StoreUint64(&c.closes, 0)
	ratomic.StoreUint64(&c.bytes[0], 0)
	ratomic.StoreUint64(&c.bytes[1], 0)
}
