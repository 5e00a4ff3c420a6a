// Package shm maps the I/O statistics table onto a shared-memory file so that
// independent processes can write their own slots and read everybody else's.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package shm_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/shm"
	"github.com/NVIDIA/procio/tools/tassert"
)

func TestCreateAttach(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procio.shm")
	rw, err := shm.Create(path, 16)
	tassert.CheckFatal(t, err)
	defer rw.Close()

	finfo, err := os.Stat(path)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, finfo.Size() == int64(shm.Size(16)), "size %d", finfo.Size())

	table := rw.Table()
	tassert.Fatalf(t, table.Capacity() == 16, "capacity %d", table.Capacity())
	tassert.Fatalf(t, table.Claim(5, 4321), "claim")
	w := table.Writer(5)
	w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpFsync, 2*time.Millisecond, 0)
	w.BeginWait(17, iostat.WaitFd)

	ro, err := shm.Attach(path, true)
	tassert.CheckFatal(t, err)
	defer ro.Close()
	tassert.Errorf(t, ro.ReadOnly() && ro.Header().Slots == 16, "header %+v", ro.Header())

	var snap iostat.SlotSnap
	tassert.Fatalf(t, ro.Table().SnapshotOf(5, 4321, &snap), "slot 5 not visible through the attached region")
	tassert.Errorf(t, snap.Cells[iostat.CatWAL][iostat.LocShared].FsyncCount == 1, "fsync count")
	tassert.Errorf(t, snap.Waiting && snap.Wait.Object == 17 && snap.Wait.Kind == iostat.WaitFd, "wait %+v", snap.Wait)

	// writes through one mapping are seen through the other
	w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpFsync, time.Millisecond, 0)
	ro.Table().Snapshot(5, &snap)
	tassert.Errorf(t, snap.Cells[iostat.CatWAL][iostat.LocShared].FsyncCount == 2, "fsync count after second write")

	tassert.CheckFatal(t, rw.Close())
	tassert.CheckFatal(t, rw.Close()) // idempotent
}

func TestAttachInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := shm.Attach(filepath.Join(dir, "nonexistent"), true)
	tassert.Errorf(t, err != nil, "expected error attaching nonexistent region")

	short := filepath.Join(dir, "short")
	tassert.CheckFatal(t, os.WriteFile(short, []byte("procio"), 0o644))
	_, err = shm.Attach(short, true)
	tassert.Errorf(t, errors.Is(err, shm.ErrTruncated), "expected truncated, got %v", err)

	garbage := filepath.Join(dir, "garbage")
	tassert.CheckFatal(t, os.WriteFile(garbage, make([]byte, shm.Size(2)), 0o644))
	_, err = shm.Attach(garbage, true)
	tassert.Errorf(t, errors.Is(err, shm.ErrBadMagic), "expected bad magic, got %v", err)

	// valid header, file cut short
	path := filepath.Join(dir, "cut")
	r, err := shm.Create(path, 8)
	tassert.CheckFatal(t, err)
	tassert.CheckFatal(t, r.Close())
	tassert.CheckFatal(t, os.Truncate(path, int64(shm.Size(4))))
	_, err = shm.Attach(path, false)
	tassert.Errorf(t, errors.Is(err, shm.ErrTruncated), "expected truncated, got %v", err)

	_, err = shm.Create(filepath.Join(dir, "zero"), 0)
	tassert.Errorf(t, err != nil, "expected error creating zero-slot region")

	tassert.CheckFatal(t, shm.Remove(path))
	tassert.CheckFatal(t, shm.Remove(path))
}
