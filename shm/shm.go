// Package shm maps the I/O statistics table onto a shared-memory file so that
// independent processes can write their own slots and read everybody else's.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package shm

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/iostat"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// region layout: [ header (headerSize) | slot 0 (reserved) | slot 1 | ... | slot N ]
const (
	magic      = uint64(0x70726f63696f) // "procio"
	version    = uint32(1)
	headerSize = 64
)

// header offsets
const (
	offMagic    = 0
	offVersion  = 8
	offSlotSize = 12
	offSlots    = 16
	offLayout   = 24
	offCreated  = 32
)

type (
	Header struct {
		Magic    uint64
		Layout   uint64 // iostat.LayoutHash()
		Created  int64  // unix nanoseconds
		Version  uint32
		SlotSize uint32
		Slots    uint32
	}
	Region struct {
		table    *iostat.Table
		path     string
		mem      []byte
		hdr      Header
		readOnly bool
	}
)

var (
	ErrBadMagic   = errors.New("not a procio shared-memory region")
	ErrBadVersion = errors.New("unsupported region version")
	ErrBadLayout  = errors.New("incompatible slot layout")
	ErrTruncated  = errors.New("region truncated")
)

func Size(slots int) int { return headerSize + iostat.SizeOf(slots) }

// Create creates (or truncates) the region file, maps it read-write, and
// initializes an empty table of `slots` capacity.
func Create(path string, slots int) (*Region, error) {
	if slots <= 0 || slots > int(^uint32(0)>>1) {
		return nil, fmt.Errorf("shm: invalid number of slots %d", slots)
	}
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: failed to create %q", path)
	}
	defer fh.Close()

	size := Size(slots)
	if err := unix.Ftruncate(int(fh.Fd()), int64(size)); err != nil {
		return nil, errors.Wrapf(err, "shm: failed to size %q to %d bytes", path, size)
	}
	mem, err := unix.Mmap(int(fh.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: failed to mmap %q", path)
	}
	hdr := Header{
		Magic:    magic,
		Version:  version,
		SlotSize: uint32(iostat.SlotSize),
		Slots:    uint32(slots),
		Layout:   iostat.LayoutHash(),
		Created:  time.Now().UnixNano(),
	}
	hdr.write(mem)

	r := &Region{path: path, mem: mem, hdr: hdr}
	if r.table, err = iostat.NewTableAt(mem[headerSize:], slots); err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "shm: %q", path)
	}
	nlog.Infof("shm: created %q (%d slots, %d bytes)", path, slots, size)
	return r, nil
}

// Attach maps an existing region. A read-only region supports snapshots only:
// claiming or writing a slot through it faults.
func Attach(path string, readOnly bool) (*Region, error) {
	flag, prot := os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE
	if readOnly {
		flag, prot = os.O_RDONLY, unix.PROT_READ
	}
	fh, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: failed to open %q", path)
	}
	defer fh.Close()

	finfo, err := fh.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "shm: failed to stat %q", path)
	}
	size := finfo.Size()
	if size < headerSize {
		return nil, errors.Wrapf(ErrTruncated, "shm: %q (%d bytes)", path, size)
	}
	mem, err := unix.Mmap(int(fh.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "shm: failed to mmap %q", path)
	}
	r := &Region{path: path, mem: mem, readOnly: readOnly}
	r.hdr.read(mem)
	if err := r.validate(); err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "shm: %q", path)
	}
	if r.table, err = iostat.NewTableAt(mem[headerSize:], int(r.hdr.Slots)); err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "shm: %q", path)
	}
	return r, nil
}

// Remove deletes the region file; existing mappings stay valid until closed.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "shm: failed to remove %q", path)
	}
	return nil
}

func (r *Region) validate() error {
	switch {
	case r.hdr.Magic != magic:
		return ErrBadMagic
	case r.hdr.Version != version:
		return errors.Wrapf(ErrBadVersion, "v%d (expecting v%d)", r.hdr.Version, version)
	case r.hdr.Layout != iostat.LayoutHash() || r.hdr.SlotSize != uint32(iostat.SlotSize):
		return errors.Wrapf(ErrBadLayout, "slot size %d (expecting %d)", r.hdr.SlotSize, iostat.SlotSize)
	case r.hdr.Slots == 0 || len(r.mem) < Size(int(r.hdr.Slots)):
		return errors.Wrapf(ErrTruncated, "%d bytes for %d slots", len(r.mem), r.hdr.Slots)
	}
	return nil
}

func (r *Region) Table() *iostat.Table { return r.table }
func (r *Region) Path() string         { return r.path }
func (r *Region) Header() Header       { return r.hdr }
func (r *Region) ReadOnly() bool       { return r.readOnly }

// Close unmaps the region; the table must not be used afterwards.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem, r.table = nil, nil
	if err := unix.Munmap(mem); err != nil {
		nlog.Errorf("shm: failed to unmap %q: %v", r.path, err)
		return errors.Wrapf(err, "shm: failed to unmap %q", r.path)
	}
	return nil
}

func (h *Header) write(mem []byte) {
	binary.LittleEndian.PutUint32(mem[offVersion:], h.Version)
	binary.LittleEndian.PutUint32(mem[offSlotSize:], h.SlotSize)
	binary.LittleEndian.PutUint32(mem[offSlots:], h.Slots)
	binary.LittleEndian.PutUint64(mem[offLayout:], h.Layout)
	binary.LittleEndian.PutUint64(mem[offCreated:], uint64(h.Created))
	binary.LittleEndian.PutUint64(mem[offMagic:], h.Magic) // last
}

func (h *Header) read(mem []byte) {
	h.Magic = binary.LittleEndian.Uint64(mem[offMagic:])
	h.Version = binary.LittleEndian.Uint32(mem[offVersion:])
	h.SlotSize = binary.LittleEndian.Uint32(mem[offSlotSize:])
	h.Slots = binary.LittleEndian.Uint32(mem[offSlots:])
	h.Layout = binary.LittleEndian.Uint64(mem[offLayout:])
	h.Created = int64(binary.LittleEndian.Uint64(mem[offCreated:]))
}
