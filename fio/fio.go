// Package fio provides files whose every operation is timed and accounted
// in the owning process's statistics slot.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package fio

import (
	"io"
	"os"

	"github.com/NVIDIA/procio/iostat"
	"golang.org/x/sys/unix"
)

type (
	// Opener opens files on behalf of one process. Like the writer it wraps,
	// an Opener (and the files it opens) must not be used concurrently.
	Opener struct {
		w      *iostat.Writer
		shared []string
	}
	File struct {
		fh  *os.File
		w   *iostat.Writer
		cat iostat.DirCategory
		loc iostat.Location
	}
)

// interface guard
var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.ReaderAt        = (*File)(nil)
	_ io.WriterAt        = (*File)(nil)
	_ io.Closer          = (*File)(nil)
)

func NewOpener(w *iostat.Writer, sharedPrefixes []string) *Opener {
	return &Opener{w: w, shared: sharedPrefixes}
}

func (o *Opener) Open(path string) (*File, error) { return o.OpenFile(path, os.O_RDONLY, 0) }

func (o *Opener) Create(path string) (*File, error) {
	return o.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

// OpenFile is os.OpenFile, accounted as OpCreate when O_CREATE is set and as
// OpOpen otherwise. Failed attempts are accounted as well.
func (o *Opener) OpenFile(path string, flag int, perm os.FileMode) (*File, error) {
	var (
		cat  = iostat.CategoryOf(path)
		loc  = iostat.LocationOf(path, o.shared)
		kind = iostat.OpOpen
	)
	if flag&os.O_CREATE != 0 {
		kind = iostat.OpCreate
	}
	started := o.w.Start()
	fh, err := os.OpenFile(path, flag, perm)
	o.w.Done(started, cat, loc, kind, 0)
	if err != nil {
		return nil, err
	}
	return &File{fh: fh, w: o.w, cat: cat, loc: loc}, nil
}

func (f *File) Name() string                 { return f.fh.Name() }
func (f *File) Fd() uintptr                  { return f.fh.Fd() }
func (f *File) Category() iostat.DirCategory { return f.cat }
func (f *File) Location() iostat.Location    { return f.loc }
func (f *File) Stat() (os.FileInfo, error)   { return f.fh.Stat() }

func (f *File) done(started int64, kind iostat.OpKind, n int) {
	f.w.Done(started, f.cat, f.loc, kind, int64(n))
}

func (f *File) Read(b []byte) (int, error) {
	started := f.w.Start()
	n, err := f.fh.Read(b)
	f.done(started, iostat.OpRead, n)
	return n, err
}

func (f *File) ReadAt(b []byte, off int64) (int, error) {
	started := f.w.Start()
	n, err := f.fh.ReadAt(b, off)
	f.done(started, iostat.OpRead, n)
	return n, err
}

func (f *File) Write(b []byte) (int, error) {
	started := f.w.Start()
	n, err := f.fh.Write(b)
	f.done(started, iostat.OpWrite, n)
	return n, err
}

func (f *File) WriteAt(b []byte, off int64) (int, error) {
	started := f.w.Start()
	n, err := f.fh.WriteAt(b, off)
	f.done(started, iostat.OpWrite, n)
	return n, err
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	started := f.w.Start()
	pos, err := f.fh.Seek(offset, whence)
	f.done(started, iostat.OpSeek, 0)
	return pos, err
}

func (f *File) Sync() error {
	started := f.w.Start()
	err := f.fh.Sync()
	f.done(started, iostat.OpFsync, 0)
	return err
}

// Allocate preallocates [off, off+size) (fallocate(2), mode 0).
func (f *File) Allocate(off, size int64) error {
	started := f.w.Start()
	err := unix.Fallocate(int(f.fh.Fd()), 0, off, size)
	f.done(started, iostat.OpAllocate, 0)
	if err != nil {
		return &os.PathError{Op: "fallocate", Path: f.fh.Name(), Err: err}
	}
	return nil
}

// Close is counted but not timed.
func (f *File) Close() error {
	err := f.fh.Close()
	f.w.RecordClose(f.cat, f.loc)
	return err
}
