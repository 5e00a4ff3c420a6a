// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/report"

	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

const (
	subcmdShowProcess = "process"
	subcmdShowIO      = "io"
	subcmdShowLatency = "latency"
	subcmdShowTotals  = "totals"
)

const nullCell = "-"

var (
	allRowsFlag = cli.BoolFlag{
		Name:  "all",
		Usage: "include rows with no recorded operations",
	}
	locationFlag = cli.StringFlag{
		Name:  "location",
		Usage: "only show rows for the given location: local or pfs",
	}
	kindFlag = cli.StringFlag{
		Name:  "kind",
		Usage: "only show rows for the given operation kind: read, write, open, seek, creat, fsync, falloc",
	}
)

func (a *acli) showCmd() cli.Command {
	return cli.Command{
		Name:  "show",
		Usage: "show per-process I/O statistics",
		Subcommands: []cli.Command{
			{
				Name:   subcmdShowProcess,
				Usage:  "one row per backend process: wait state, CPU, memory, and I/O by location",
				Flags:  []cli.Flag{jsonFlag},
				Action: a.showProcessHandler,
			},
			{
				Name:   subcmdShowIO,
				Usage:  "per-process I/O counters by directory category and location",
				Flags:  []cli.Flag{jsonFlag, allRowsFlag, locationFlag},
				Action: a.showIOHandler,
			},
			{
				Name:   subcmdShowLatency,
				Usage:  "per-process latency distribution by location and operation kind",
				Flags:  []cli.Flag{jsonFlag, allRowsFlag, locationFlag, kindFlag},
				Action: a.showLatencyHandler,
			},
			{
				Name:   subcmdShowTotals,
				Usage:  "table-wide totals by location and operation kind",
				Flags:  []cli.Flag{jsonFlag},
				Action: a.showTotalsHandler,
			},
		},
	}
}

func (a *acli) showProcessHandler(c *cli.Context) error {
	rep, done, err := a.attach(false)
	if err != nil {
		return err
	}
	defer done()
	rows := rep.ProcessSummary()
	if c.Bool(jsonFlag.Name) {
		return printJSON(a.out, rows)
	}
	table := a.newTable("PID", "QUERY", "WAIT", "WAIT(ms)", "CPU USER(ms)", "CPU SYS(ms)", "RSS",
		"PFS READ", "PFS WRITE", "PFS BYTES R/W", "LOCAL READ", "LOCAL WRITE", "LOCAL BYTES R/W")
	for i := range rows {
		row := &rows[i]
		wait := nullCell
		if row.WaitType != nil {
			wait = *row.WaitType + ":" + fmtPtr(row.WaitObject, fmtInt[int32])
		}
		cells := []string{
			fmtPtr(row.Pid, fmtInt[int32]),
			fmtPtr(row.QueryID, fmtInt[int64]),
			wait,
			fmtPtr(row.WaitTimeMs, fmtFloat),
			fmtPtr(row.CPUUser, fmtInt[int64]),
			fmtPtr(row.CPUSys, fmtInt[int64]),
			fmtPtr(row.RSS, fmtSize),
			fmtOps(row.SharedReadPs, row.SharedReadLatencyMs),
			fmtOps(row.SharedWritePs, row.SharedWriteLatencyMs),
			fmtPtr(row.SharedReadBytes, fmtSize) + " / " + fmtPtr(row.SharedWriteBytes, fmtSize),
			fmtOps(row.LocalReadPs, row.LocalReadLatencyMs),
			fmtOps(row.LocalWritePs, row.LocalWriteLatencyMs),
			fmtPtr(row.LocalReadBytes, fmtSize) + " / " + fmtPtr(row.LocalWriteBytes, fmtSize),
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

func (a *acli) showIOHandler(c *cli.Context) error {
	loc, err := parseLocation(c)
	if err != nil {
		return err
	}
	rep, done, err := a.attach(true)
	if err != nil {
		return err
	}
	defer done()
	rows, err := rep.IODetailByCategory()
	if err != nil {
		return err
	}
	if loc != "" {
		rows = filterRows(rows, func(row *report.IORow) bool { return row.FileLocation == loc })
	}
	if c.Bool(jsonFlag.Name) {
		return printJSON(a.out, rows)
	}
	all := c.Bool(allRowsFlag.Name)
	table := a.newTable("PID", "TYPE", "LOCATION", "OPEN", "CLOSE", "CREAT", "READ", "WRITE",
		"BYTES R/W", "READ(us)", "WRITE(us)", "SEEK", "FSYNC", "FSYNC(us)", "FALLOC")
	for i := range rows {
		row := &rows[i]
		if !all && row.OpenCount+row.CloseCount+row.ReadCount+row.WriteCount+row.SeekCount+
			row.CreatCount+row.FsyncCount+row.FallocCount == 0 {
			continue
		}
		cells := []string{
			strconv.Itoa(int(row.Pid)), row.FileType, row.FileLocation,
			fmtInt(row.OpenCount), fmtInt(row.CloseCount), fmtInt(row.CreatCount),
			fmtInt(row.ReadCount), fmtInt(row.WriteCount),
			fmtSize(row.ReadBytes) + " / " + fmtSize(row.WriteBytes),
			fmtFloat(row.ReadLatency), fmtFloat(row.WriteLatency),
			fmtInt(row.SeekCount), fmtInt(row.FsyncCount), fmtFloat(row.FsyncLatency),
			fmtInt(row.FallocCount),
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

func (a *acli) showLatencyHandler(c *cli.Context) error {
	loc, err := parseLocation(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	rep, done, err := a.attach(true)
	if err != nil {
		return err
	}
	defer done()
	rows, err := rep.LatencyHistogram()
	if err != nil {
		return err
	}
	if loc != "" || kind != "" {
		rows = filterRows(rows, func(row *report.LatencyRow) bool {
			return (loc == "" || row.IOLocation == loc) && (kind == "" || row.IOKind == kind)
		})
	}
	if c.Bool(jsonFlag.Name) {
		return printJSON(a.out, rows)
	}
	all := c.Bool(allRowsFlag.Name)
	table := a.newTable(append([]string{"PID", "LOCATION", "KIND"}, bucketHeader()...)...)
	for i := range rows {
		row := &rows[i]
		var (
			buckets = row.Buckets()
			cells   = make([]string, 0, 3+iostat.NumBuckets)
			total   int64
		)
		cells = append(cells, strconv.Itoa(int(row.Pid)), row.IOLocation, row.IOKind)
		for _, n := range buckets {
			total += n
			cells = append(cells, fmtInt(n))
		}
		if total == 0 && !all {
			continue
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

func (a *acli) showTotalsHandler(c *cli.Context) error {
	rep, done, err := a.attach(true)
	if err != nil {
		return err
	}
	defer done()
	tot, err := rep.Totals()
	if err != nil {
		return err
	}
	if c.Bool(jsonFlag.Name) {
		return printJSON(a.out, tot.Rows())
	}
	return a.printTotals(tot)
}

func (a *acli) printTotals(tot *report.Totals) error {
	rows := tot.Rows()
	fmt.Fprintf(a.out, "%s %d/%d\n", fcyan("live slots:"), tot.Live, tot.Capacity)
	table := a.newTable(append([]string{"LOCATION", "KIND", "COUNT", "BYTES", "TIME(ms)"}, bucketHeader()...)...)
	for i := range rows {
		row := &rows[i]
		cells := make([]string, 0, 5+iostat.NumBuckets)
		cells = append(cells, row.Location, row.Kind, cos.FormatBigNum(int64(row.Count)),
			cos.ToSizeIEC(int64(row.Bytes), 1), fmtFloat(row.TimeMs))
		for _, n := range row.Buckets {
			cells = append(cells, cos.FormatBigNum(int64(n)))
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

//
// filtering
//

// parseLocation returns the canonical --location name, or "" when not set.
func parseLocation(c *cli.Context) (string, error) {
	s := c.String(locationFlag.Name)
	if s == "" {
		return "", nil
	}
	loc, ok := iostat.ParseLocation(s)
	if !ok {
		return "", fmt.Errorf("invalid --%s %q (expecting local or pfs)", locationFlag.Name, s)
	}
	return loc.String(), nil
}

func parseKind(c *cli.Context) (string, error) {
	s := c.String(kindFlag.Name)
	if s == "" {
		return "", nil
	}
	kind, ok := iostat.ParseKind(s)
	if !ok {
		return "", fmt.Errorf("invalid --%s %q", kindFlag.Name, s)
	}
	return kind.String(), nil
}

func filterRows[T any](rows []T, keep func(*T) bool) []T {
	out := rows[:0]
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

//
// formatting
//

func (a *acli) newTable(hdr ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader(hdr)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func bucketHeader() []string {
	hdr := make([]string, iostat.NumBuckets)
	for i := range hdr {
		hdr[i] = iostat.LatencyBucket(i).String()
	}
	return hdr
}

func printJSON(w io.Writer, v any) error {
	enc := jsoniter.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtPtr[T any](p *T, f func(T) string) string {
	if p == nil {
		return nullCell
	}
	return f(*p)
}

func fmtInt[T int32 | int64](v T) string { return cos.FormatBigNum(int64(v)) }
func fmtFloat(v float64) string          { return strconv.FormatFloat(v, 'f', 3, 64) }
func fmtSize(v int64) string             { return cos.ToSizeIEC(v, 1) }

// count followed by cumulative time, e.g. "12 (3.500ms)"
func fmtOps(n *int64, ms *float64) string {
	if n == nil {
		return nullCell
	}
	s := fmtInt(*n)
	if ms != nil && *n > 0 {
		s += " (" + fmtFloat(*ms) + "ms)"
	}
	return s
}
