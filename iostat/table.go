// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import (
	"fmt"
	ratomic "sync/atomic"
	"unsafe"

	"github.com/NVIDIA/procio/cmn/debug"
	"github.com/NVIDIA/procio/cmn/mono"
	"github.com/cespare/xxhash/v2"
)

const slotAlign = 8

// monotonic nanoseconds
type Clock func() int64

// Table is indexed by process slot. Slot 0 is reserved: it is never claimed
// and never reported; live slots are [1, Capacity()].
type Table struct {
	now   Clock
	slots []Slot
}

// NewTable allocates a process-local table for up to `capacity` processes.
func NewTable(capacity int) *Table {
	debug.Assert(capacity > 0)
	return &Table{slots: make([]Slot, capacity+1), now: mono.NanoTime}
}

// NewTableAt overlays the table on caller-provided (typically shared) memory
// that must be at least SizeOf(capacity) bytes and 8-byte aligned.
func NewTableAt(mem []byte, capacity int) (*Table, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid capacity %d", capacity)
	}
	if need := SizeOf(capacity); len(mem) < need {
		return nil, fmt.Errorf("region too small: %d < %d bytes (capacity %d)", len(mem), need, capacity)
	}
	p := unsafe.Pointer(unsafe.SliceData(mem))
	if uintptr(p)%slotAlign != 0 {
		return nil, fmt.Errorf("region misaligned: %p", p)
	}
	slots := unsafe.Slice((*Slot)(p), capacity+1)
	return &Table{slots: slots, now: mono.NanoTime}, nil
}

// SizeOf returns the number of bytes needed to hold `capacity` slots (plus the reserved one).
func SizeOf(capacity int) int { return (capacity + 1) * SlotSize }

// Layout describes the binary slot layout; two processes may share a table
// only if their layouts are identical.
func Layout() string {
	return fmt.Sprintf("slot=%d,cats=%d,locs=%d,kinds=%d,buckets=%d,waits=%d",
		SlotSize, NumCategories, NumLocations, NumKinds, NumBuckets, MaxWaitDepth)
}

func LayoutHash() uint64 { return xxhash.Sum64String(Layout()) }

func (t *Table) Capacity() int { return len(t.slots) - 1 }

// SetClock replaces the monotonic clock; must be called before any writer is created.
func (t *Table) SetClock(now Clock) { t.now = now }

func (t *Table) Now() int64 { return t.now() }

func (t *Table) valid(idx int) bool { return idx > 0 && idx < len(t.slots) }

//
// slot ownership: registry only
//

// Claim assigns a free slot to `pid` and resets its counters; the generation
// is bumped so that readers holding an older (pid, gen) pair detect the reuse.
func (t *Table) Claim(idx int, pid int32) bool {
	if !t.valid(idx) || pid <= 0 {
		return false
	}
	s := &t.slots[idx]
	if !ratomic.CompareAndSwapInt32(&s.pid, pidFree, pidClaiming) {
		return false
	}
	s.zero()
	ratomic.AddUint64(&s.gen, 1)
	ratomic.StoreInt32(&s.pid, pid)
	return true
}

// Release frees the slot if (and only if) it is still owned by `pid`.
func (t *Table) Release(idx int, pid int32) bool {
	if !t.valid(idx) || pid <= 0 {
		return false
	}
	return ratomic.CompareAndSwapInt32(&t.slots[idx].pid, pid, pidFree)
}

func (t *Table) SetQueryID(idx int, id int64) {
	if t.valid(idx) {
		ratomic.StoreInt64(&t.slots[idx].queryID, id)
	}
}

// Pid returns the current owner of the slot (0 when free).
func (t *Table) Pid(idx int) int32 {
	if !t.valid(idx) {
		return pidFree
	}
	pid := ratomic.LoadInt32(&t.slots[idx].pid)
	if pid < 0 {
		return pidFree
	}
	return pid
}

//
// readers
//

// Snapshot copies out slot `idx` into `out`. Returns false if the slot is free
// or changed hands (released or re-claimed) while being copied.
func (t *Table) Snapshot(idx int, out *SlotSnap) bool {
	if !t.valid(idx) {
		return false
	}
	s := &t.slots[idx]
	pid := ratomic.LoadInt32(&s.pid)
	if pid <= 0 {
		return false
	}
	gen := ratomic.LoadUint64(&s.gen)
	s.load(out)
	if ratomic.LoadInt32(&s.pid) != pid || ratomic.LoadUint64(&s.gen) != gen {
		return false
	}
	out.Index, out.Pid, out.Gen = idx, pid, gen
	return true
}

// SnapshotOf is Snapshot that also requires the slot to belong to `pid`.
func (t *Table) SnapshotOf(idx int, pid int32, out *SlotSnap) bool {
	return t.Snapshot(idx, out) && out.Pid == pid
}

// Range visits all live slots in index order; `out` is reused between calls.
func (t *Table) Range(out *SlotSnap, fn func(snap *SlotSnap) bool) {
	for idx := 1; idx < len(t.slots); idx++ {
		if !t.Snapshot(idx, out) {
			continue
		}
		if !fn(out) {
			return
		}
	}
}
