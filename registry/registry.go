// Package registry tracks which backend process owns which statistics slot.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/iostat"
)

type (
	// Backend is one registered process; Pid == 0 - the entry has no
	// (or no longer has a) process behind it.
	Backend struct {
		QueryID int64
		Slot    int
		Pid     int32
	}

	// Local is an in-process registry: it assigns slots, claims them in the
	// table, and enumerates registered backends in slot order.
	Local struct {
		table    *iostat.Table
		bySlot   map[int]*Backend
		free     []int // LIFO
		mu       sync.RWMutex
		capacity int
	}

	// FromTable enumerates whatever slots are currently claimed in a (possibly
	// shared) table; used by readers that did not do the registering.
	FromTable struct {
		table *iostat.Table
	}
)

var ErrNoFreeSlots = errors.New("no free statistics slots")

func NewLocal(table *iostat.Table) *Local {
	n := table.Capacity()
	r := &Local{table: table, bySlot: make(map[int]*Backend, n), free: make([]int, 0, n), capacity: n}
	for idx := n; idx >= 1; idx-- {
		r.free = append(r.free, idx)
	}
	return r
}

// Register claims the lowest free slot for `pid` and returns the writer for it.
// Slots held by other processes sharing the table stay on the free list.
func (r *Local) Register(pid int32) (*iostat.Writer, error) {
	var skipped []int
	r.mu.Lock()
	defer func() {
		if len(skipped) > 0 {
			r.free = append(r.free, skipped...)
			sort.Sort(sort.Reverse(sort.IntSlice(r.free)))
		}
		r.mu.Unlock()
	}()
	for len(r.free) > 0 {
		idx := r.free[len(r.free)-1]
		r.free = r.free[:len(r.free)-1]
		if !r.table.Claim(idx, pid) {
			nlog.Warningf("registry: slot %d is in use (pid %d), skipping", idx, r.table.Pid(idx))
			skipped = append(skipped, idx)
			continue
		}
		r.bySlot[idx] = &Backend{Slot: idx, Pid: pid}
		return r.table.Writer(idx), nil
	}
	return nil, fmt.Errorf("%w (capacity %d, pid %d)", ErrNoFreeSlots, r.capacity, pid)
}

// Unregister releases the slot; the registry entry remains enumerable only
// until this call returns.
func (r *Local) Unregister(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bySlot[slot]
	if !ok {
		return
	}
	if b.Pid > 0 {
		r.table.Release(slot, b.Pid)
	}
	delete(r.bySlot, slot)
	r.free = append(r.free, slot)
	sort.Sort(sort.Reverse(sort.IntSlice(r.free)))
}

// MarkExited keeps the entry but detaches the process (e.g., the backend
// exited and the slot is pending cleanup).
func (r *Local) MarkExited(slot int) {
	r.mu.Lock()
	if b, ok := r.bySlot[slot]; ok && b.Pid > 0 {
		r.table.Release(slot, b.Pid)
		b.Pid = 0
	}
	r.mu.Unlock()
}

func (r *Local) SetQueryID(slot int, id int64) {
	r.mu.Lock()
	if b, ok := r.bySlot[slot]; ok {
		b.QueryID = id
		r.table.SetQueryID(slot, id)
	}
	r.mu.Unlock()
}

// Backends returns registered backends in ascending slot order.
func (r *Local) Backends() []Backend {
	r.mu.RLock()
	out := make([]Backend, 0, len(r.bySlot))
	for _, b := range r.bySlot {
		out = append(out, *b)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (r *Local) Len() int {
	r.mu.RLock()
	n := len(r.bySlot)
	r.mu.RUnlock()
	return n
}

//
// FromTable
//

func NewFromTable(table *iostat.Table) *FromTable { return &FromTable{table: table} }

func (r *FromTable) Backends() []Backend {
	if r.table == nil {
		return nil
	}
	var (
		snap iostat.SlotSnap
		out  []Backend
	)
	r.table.Range(&snap, func(s *iostat.SlotSnap) bool {
		out = append(out, Backend{Slot: s.Index, Pid: s.Pid, QueryID: s.QueryID})
		return true
	})
	return out
}
