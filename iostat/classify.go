// Package iostat is the per-process I/O statistics table: a fixed-capacity array of
// slots, each exclusively written by a single process and read by anyone.
/*
 * Copyright (c) 2025-2026, NVIDIA CORPORATION. All rights reserved.
 */
package iostat

import (
	"path/filepath"
	"strings"
)

// data directory subdirectories
var dirCategories = map[string]DirCategory{
	"pg_wal":       CatWAL,
	"base":         CatData,
	"pg_xact":      CatCLOG,
	"global":       CatGlobal,
	"pg_logindex":  CatLogIndex,
	"pg_multixact": CatMultiXact,
	"pg_twophase":  CatTwoPhase,
	"pg_replslot":  CatReplSlot,
	"pg_snapshots": CatSnapshots,
	"pg_subtrans":  CatSubtrans,
}

// CategoryOf returns the category of the left-most path element that names
// a known directory, CatOthers if none does.
func CategoryOf(path string) DirCategory {
	for _, elem := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if cat, ok := dirCategories[elem]; ok {
			return cat
		}
	}
	return CatOthers
}

// LocationOf returns LocShared if path is at or under any of the (cleaned)
// shared prefixes, LocLocal otherwise.
func LocationOf(path string, sharedPrefixes []string) Location {
	path = filepath.Clean(path)
	for _, prefix := range sharedPrefixes {
		if prefix == "" {
			continue
		}
		prefix = filepath.Clean(prefix)
		if path == prefix {
			return LocShared
		}
		if prefix == string(filepath.Separator) || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return LocShared
		}
	}
	return LocLocal
}
