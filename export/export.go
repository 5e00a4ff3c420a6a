// Package export writes procio views as JSON lines or parquet.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/report"

	jsoniter "github.com/json-iterator/go"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

type Format int

const (
	FormatJSONL Format = iota
	FormatParquet
)

// views
const (
	ViewProcess = "process"
	ViewIO      = "io"
	ViewLatency = "latency"
)

var Views = []string{ViewProcess, ViewIO, ViewLatency}

// Source is implemented by report.Reporter.
type Source interface {
	ProcessSummary() []report.ProcessRow
	IODetailByCategory() ([]report.IORow, error)
	LatencyHistogram() ([]report.LatencyRow, error)
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "jsonl", "json":
		return FormatJSONL, nil
	case "parquet":
		return FormatParquet, nil
	}
	return 0, fmt.Errorf("invalid export format %q (expecting jsonl or parquet)", s)
}

func (f Format) String() string {
	if f == FormatParquet {
		return "parquet"
	}
	return "jsonl"
}

// Ext returns the conventional file extension, including the dot.
func (f Format) Ext() string { return "." + f.String() }

// Write writes `rows` to `w` in the given format.
func Write[T any](w io.Writer, f Format, rows []T) error {
	if f == FormatParquet {
		return writeParquet(w, rows)
	}
	return writeJSONL(w, rows)
}

func writeJSONL[T any](w io.Writer, rows []T) error {
	bw := bufio.NewWriter(w)
	enc := jsoniter.NewEncoder(bw) // Encode appends a newline
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return errors.Wrapf(err, "encode row %d", i)
		}
	}
	return bw.Flush()
}

func writeParquet[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return errors.Wrap(err, "write parquet rows")
	}
	return errors.Wrap(pw.Close(), "close parquet writer")
}

// View writes the named view of `src`.
func View(w io.Writer, src Source, view string, f Format) (n int, err error) {
	switch view {
	case ViewProcess:
		rows := src.ProcessSummary()
		return len(rows), Write(w, f, rows)
	case ViewIO:
		rows, err := src.IODetailByCategory()
		if err != nil {
			return 0, err
		}
		return len(rows), Write(w, f, rows)
	case ViewLatency:
		rows, err := src.LatencyHistogram()
		if err != nil {
			return 0, err
		}
		return len(rows), Write(w, f, rows)
	}
	return 0, fmt.Errorf("invalid view %q (expecting one of %v)", view, Views)
}

// ToFile writes the view into `path`, replacing it only upon success.
func ToFile(path string, src Source, view string, f Format) error {
	tmp := path + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %q", tmp)
	}
	n, err := View(fh, src, view, f)
	if erc := fh.Close(); err == nil {
		err = erc
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %q", tmp)
	}
	nlog.Infof("exported %d %s row(s) to %s", n, view, path)
	return nil
}
