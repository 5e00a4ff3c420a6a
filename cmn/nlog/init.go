// Package nlog - procio logger, provides buffering, timestamping, and writing
/*
 * Copyright (c) 2023-2025, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	host = "unknown"
	pid  int

	logDir string
	arg0   string
	title  string

	toStderr     bool
	alsoToStderr bool

	std = &nlog{buf: make([]byte, 0, nlogBufSize)}

	pool = sync.Pool{
		New: func() any { return &line{buf: make([]byte, 0, nlogLineSize)} },
	}
)

func init() {
	pid = os.Getpid()
	arg0 = filepath.Base(os.Args[0])
	if h, err := os.Hostname(); err == nil {
		host, _, _ = strings.Cut(h, ".")
	}
}

// lazily, upon the first buffered write
func (nlog *nlog) open() error {
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), "procio")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}
	now := time.Now()
	fname := filepath.Join(logDir, fmt.Sprintf("%s.%s.%02d%02d-%02d%02d%02d.%d.log",
		arg0, host, now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), pid))
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	// re-symlink
	symlink := filepath.Join(logDir, LogName())
	os.Remove(symlink)
	os.Symlink(filepath.Base(fname), symlink)

	hdr := fmt.Sprintf("Started up at %s, host %s, %s for %s/%s\n",
		now.Format("2006/01/02 15:04:05"), host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if title != "" {
		hdr += title + "\n"
	}
	f.WriteString(hdr)
	nlog.file = f
	return nil
}
