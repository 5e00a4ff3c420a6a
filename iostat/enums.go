// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

type (
	// storage area a file belongs to
	DirCategory uint8
	// local filesystem vs. shared (distributed) storage
	Location uint8
	// operation kind; every kind has a count and a cumulative duration
	OpKind uint8
)

const (
	CatWAL DirCategory = iota
	CatData
	CatCLOG
	CatGlobal
	CatLogIndex
	CatMultiXact
	CatTwoPhase
	CatReplSlot
	CatSnapshots
	CatSubtrans
	CatOthers

	NumCategories = int(CatOthers) + 1
)

const (
	LocLocal Location = iota
	LocShared

	NumLocations = int(LocShared) + 1
)

const (
	OpRead OpKind = iota
	OpWrite
	OpOpen
	OpSeek
	OpCreate
	OpFsync
	OpAllocate

	NumKinds = int(OpAllocate) + 1
)

var (
	catNames = [...]string{"WAL", "DATA", "CLOG", "global", "logindex", "multixact",
		"twophase", "replslot", "snapshots", "subtrans", "others"}
	locNames  = [...]string{"local", "pfs"}
	kindNames = [...]string{"read", "write", "open", "seek", "creat", "fsync", "falloc"}
)

// compile-time: name arrays must match enum cardinalities
var (
	_ = [1]struct{}{}[len(catNames)-NumCategories]
	_ = [1]struct{}{}[len(locNames)-NumLocations]
	_ = [1]struct{}{}[len(kindNames)-NumKinds]
)

// report order of locations in the per-category view
var ReportLocations = [NumLocations]Location{LocShared, LocLocal}

func (c DirCategory) String() string {
	if int(c) < NumCategories {
		return catNames[c]
	}
	return "invalid"
}

func (l Location) String() string {
	if int(l) < NumLocations {
		return locNames[l]
	}
	return "invalid"
}

func (k OpKind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return "invalid"
}

func (c DirCategory) Valid() bool { return int(c) < NumCategories }
func (l Location) Valid() bool    { return int(l) < NumLocations }
func (k OpKind) Valid() bool      { return int(k) < NumKinds }

func ParseCategory(s string) (DirCategory, bool) {
	for i, n := range catNames {
		if n == s {
			return DirCategory(i), true
		}
	}
	return CatOthers, false
}

func ParseLocation(s string) (Location, bool) {
	for i, n := range locNames {
		if n == s {
			return Location(i), true
		}
	}
	return LocLocal, false
}

func ParseKind(s string) (OpKind, bool) {
	for i, n := range kindNames {
		if n == s {
			return OpKind(i), true
		}
	}
	return OpRead, false
}
