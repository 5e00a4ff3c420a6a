// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import (
	ratomic "sync/atomic"
	"time"

	"github.com/NVIDIA/procio/cmn/debug"
)

// Writer is the owning process's handle to its own slot. Not safe for concurrent
// use: a process has exactly one writer for its slot (single-writer discipline
// makes load+store increments sufficient). Recording never allocates, never
// blocks, and never fails.
type Writer struct {
	slot     *Slot
	now      Clock
	idx      int
	overflow int // BeginWait calls past MaxWaitDepth that have not ended yet
}

// Writer returns the recording handle for slot `idx`; nil if out of range.
func (t *Table) Writer(idx int) *Writer {
	if !t.valid(idx) {
		return nil
	}
	return &Writer{slot: &t.slots[idx], now: t.now, idx: idx}
}

func (w *Writer) Slot() int { return w.idx }

// Start returns the current monotonic time, to be passed to Done.
func (w *Writer) Start() int64 { return w.now() }

// Done records an operation that began at `started`.
func (w *Writer) Done(started int64, cat DirCategory, loc Location, kind OpKind, size int64) {
	w.RecordOp(cat, loc, kind, time.Duration(w.now()-started), size)
}

func incUint64(p *uint64, n uint64) { ratomic.StoreUint64(p, ratomic.LoadUint64(p)+n) }
func incInt64(p *int64, n int64)    { ratomic.StoreInt64(p, ratomic.LoadInt64(p)+n) }

// RecordOp accounts one completed operation: count and cumulative duration for
// its kind, bytes for reads and writes, and one latency bucket hit.
func (w *Writer) RecordOp(cat DirCategory, loc Location, kind OpKind, d time.Duration, size int64) {
	debug.Assertf(cat.Valid() && loc.Valid() && kind.Valid(), "invalid op (%d, %d, %d)", cat, loc, kind)
	if !cat.Valid() {
		cat = CatOthers
	}
	if !loc.Valid() || !kind.Valid() {
		return
	}
	if d < 0 {
		d = 0
	}
	c := &w.slot.cells[cat][loc]
	incUint64(&c.counts[kind], 1)
	incInt64(&c.times[kind], int64(d))
	if size > 0 {
		switch kind {
		case OpRead:
			incUint64(&c.bytes[0], uint64(size))
		case OpWrite:
			incUint64(&c.bytes[1], uint64(size))
		}
	}
	incUint64(&w.slot.dist[loc][kind][Classify(d)], 1)
}

// RecordClose counts a close; closes carry neither duration nor latency.
func (w *Writer) RecordClose(cat DirCategory, loc Location) {
	if !cat.Valid() {
		cat = CatOthers
	}
	if !loc.Valid() {
		return
	}
	incUint64(&w.slot.cells[cat][loc].closes, 1)
}

// BeginWait pushes a wait entry. Nesting beyond MaxWaitDepth is not recorded
// (and the matching EndWait is a no-op).
func (w *Writer) BeginWait(object int32, kind WaitKind) {
	s := w.slot
	d := ratomic.LoadInt32(&s.depth)
	if w.overflow > 0 || d >= MaxWaitDepth {
		w.overflow++
		return
	}
	e := &s.waits[d]
	ratomic.StoreInt64(&e.start, 0)
	ratomic.StoreInt32(&e.object, object)
	ratomic.StoreInt32(&e.kind, int32(kind))
	ratomic.StoreInt64(&e.start, w.now())
	ratomic.StoreInt32(&s.depth, d+1)
}

// EndWait pops the most recent wait; no-op when the stack is empty.
func (w *Writer) EndWait() {
	if w.overflow > 0 {
		w.overflow--
		return
	}
	s := w.slot
	d := ratomic.LoadInt32(&s.depth)
	if d <= 0 {
		return
	}
	ratomic.StoreInt32(&s.depth, d-1)
	ratomic.StoreInt64(&s.waits[d-1].start, 0)
}

// WaitDepth returns the number of currently recorded (non-overflowed) waits.
func (w *Writer) WaitDepth() int { return int(ratomic.LoadInt32(&w.slot.depth)) }
