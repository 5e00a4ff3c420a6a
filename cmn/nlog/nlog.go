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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NVIDIA/procio/cmn/mono"
)

const (
	nlogBufSize   = 64 * 1024
	nlogLineSize  = 4 * 1024
	nlogFlushTime = 10 * time.Second
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

type (
	nlog struct {
		file *os.File
		buf  []byte
		last int64 // mono.NanoTime of the last flush
		mw   sync.Mutex
		err  error // fatal for this log; from now on stderr only
	}
	line struct {
		buf []byte
	}
)

// main function
func log(sev severity, depth int, format string, args ...any) {
	ln := pool.Get().(*line)
	ln.buf = ln.buf[:0]
	ln.format(sev, depth+1, format, args...)

	if toStderr || alsoToStderr || sev >= sevErr {
		os.Stderr.Write(ln.buf)
	}
	if !toStderr {
		std.write(ln.buf)
	}
	pool.Put(ln)
}

func (nlog *nlog) write(b []byte) {
	nlog.mw.Lock()
	if nlog.file == nil && nlog.err == nil {
		nlog.err = nlog.open()
		nlog.last = mono.NanoTime()
	}
	if nlog.err != nil {
		nlog.mw.Unlock()
		if !alsoToStderr {
			os.Stderr.Write(b)
		}
		return
	}
	nlog.buf = append(nlog.buf, b...)
	if len(nlog.buf) >= nlogBufSize-nlogLineSize || mono.Since(nlog.last) > nlogFlushTime {
		nlog._flush()
	}
	nlog.mw.Unlock()
}

func (nlog *nlog) flush() {
	nlog.mw.Lock()
	nlog._flush()
	nlog.mw.Unlock()
}

// under mw-lock
func (nlog *nlog) _flush() {
	nlog.last = mono.NanoTime()
	if len(nlog.buf) == 0 || nlog.file == nil {
		return
	}
	if _, err := nlog.file.Write(nlog.buf); err != nil {
		os.Stderr.WriteString("Error: [nlog] " + err.Error() + "\n")
		os.Stderr.Write(nlog.buf)
		nlog.err = err
	}
	nlog.buf = nlog.buf[:0]
}

//
// line
//

func (ln *line) format(sev severity, depth int, format string, args ...any) {
	const char = "IWE"
	ln.buf = append(ln.buf, char[sev], ' ')
	ln.buf = time.Now().AppendFormat(ln.buf, "15:04:05.000000")
	ln.buf = append(ln.buf, ' ')
	if _, fn, lno, ok := runtime.Caller(2 + depth); ok {
		fn = strings.TrimSuffix(filepath.Base(fn), ".go")
		ln.buf = append(ln.buf, fn...)
		ln.buf = append(ln.buf, ':')
		ln.buf = strconv.AppendInt(ln.buf, int64(lno), 10)
		ln.buf = append(ln.buf, ' ')
	}
	if format == "" {
		ln.buf = fmt.Appendln(ln.buf, args...)
	} else {
		ln.buf = fmt.Appendf(ln.buf, format, args...)
		if l := len(ln.buf); l == 0 || ln.buf[l-1] != '\n' {
			ln.buf = append(ln.buf, '\n')
		}
	}
}
