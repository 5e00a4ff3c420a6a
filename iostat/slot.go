// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import (
	ratomic "sync/atomic"
	"unsafe"
)

const MaxWaitDepth = 4

// pid values
const (
	pidFree     int32 = 0
	pidClaiming int32 = -1
)

type (
	// Shared-memory layout: plain fixed-size words only (no pointers, no slices),
	// every field accessed with single-word atomic loads and stores.
	// The writer of a slot is its owning process and nobody else.
	waitEntry struct {
		start  int64 // mono.NanoTime() at BeginWait; 0 - not waiting
		object int32
		kind   int32
	}
	Slot struct {
		pid     int32
		depth   int32 // wait stack depth, [0, MaxWaitDepth]
		gen     uint64
		queryID int64
		waits   [MaxWaitDepth]waitEntry
		cells   [NumCategories][NumLocations]cell
		dist    [NumLocations][NumKinds][NumBuckets]uint64
	}
)

const SlotSize = int(unsafe.Sizeof(Slot{}))

type (
	Wait struct {
		Start  int64 // monotonic ns
		Object int32
		Kind   WaitKind
	}
	// SlotSnap is a point-in-time copy of a live slot. Counters are loaded one word
	// at a time while the owner keeps writing, so the copy is fuzzy but never torn
	// within a single word.
	SlotSnap struct {
		Cells   [NumCategories][NumLocations]CellSnap
		Dist    [NumLocations][NumKinds][NumBuckets]uint64
		Gen     uint64
		QueryID int64
		Wait    Wait
		Index   int
		Pid     int32
		Waiting bool
	}
)

//
// Slot
//

// zero all but pid and gen; called by the claimant while pid == pidClaiming
func (s *Slot) zero() {
	ratomic.StoreInt32(&s.depth, 0)
	ratomic.StoreInt64(&s.queryID, 0)
	for i := range s.waits {
		w := &s.waits[i]
		ratomic.StoreInt64(&w.start, 0)
		ratomic.StoreInt32(&w.object, 0)
		ratomic.StoreInt32(&w.kind, 0)
	}
	for cat := range s.cells {
		for loc := range s.cells[cat] {
			s.cells[cat][loc].zero()
		}
	}
	for loc := range s.dist {
		for kind := range s.dist[loc] {
			for b := range s.dist[loc][kind] {
				ratomic.StoreUint64(&s.dist[loc][kind][b], 0)
			}
		}
	}
}

// top of the wait stack, if any
func (s *Slot) loadWait(out *Wait) bool {
	d := ratomic.LoadInt32(&s.depth)
	if d <= 0 || d > MaxWaitDepth {
		return false
	}
	w := &s.waits[d-1]
	out.Start = ratomic.LoadInt64(&w.start)
	out.Object = ratomic.LoadInt32(&w.object)
	out.Kind = WaitKind(ratomic.LoadInt32(&w.kind))
	return true
}

func (s *Slot) load(out *SlotSnap) {
	out.QueryID = ratomic.LoadInt64(&s.queryID)
	out.Waiting = s.loadWait(&out.Wait)
	if !out.Waiting {
		out.Wait = Wait{}
	}
	for cat := range s.cells {
		for loc := range s.cells[cat] {
			s.cells[cat][loc].load(&out.Cells[cat][loc])
		}
	}
	for loc := range s.dist {
		for kind := range s.dist[loc] {
			for b := range s.dist[loc][kind] {
				out.Dist[loc][kind][b] = ratomic.LoadUint64(&s.dist[loc][kind][b])
			}
		}
	}
}
