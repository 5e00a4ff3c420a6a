// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/fio"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/shm"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

const (
	benchSyncEvery = 8 // WAL blocks per fsync
	benchFileSize  = 4 * cos.MiB
)

var (
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "number of simulated backends",
		Value: 4,
	}
	durationFlag = cli.DurationFlag{
		Name:  "duration",
		Usage: "how long to run",
		Value: 10 * time.Second,
	}
	dirFlag = cli.StringFlag{
		Name:  "dir",
		Usage: "data directory (default: temporary, removed upon exit)",
	}
	blockFlag = cli.IntFlag{
		Name:  "block",
		Usage: "I/O size in bytes",
		Value: 8 * cos.KiB,
	}
	privateFlag = cli.BoolFlag{
		Name:  "private",
		Usage: "use in-process table even when the shared-memory region exists",
	}
)

type benchArgs struct {
	opener *fio.Opener
	w      *iostat.Writer
	dir    string
	shared string
	block  int
	id     int
}

func (a *acli) benchCmd() cli.Command {
	return cli.Command{
		Name:   "bench",
		Usage:  "simulate backends doing WAL and data file I/O, then show totals",
		Flags:  []cli.Flag{workersFlag, durationFlag, dirFlag, blockFlag, privateFlag},
		Action: a.benchHandler,
	}
}

func (a *acli) benchHandler(c *cli.Context) error {
	var (
		workers = c.Int(workersFlag.Name)
		block   = c.Int(blockFlag.Name)
		dir     = c.String(dirFlag.Name)
	)
	if workers <= 0 || block <= 0 {
		return fmt.Errorf("invalid --%s %d or --%s %d", workersFlag.Name, workers, blockFlag.Name, block)
	}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "procio-bench-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	shared := filepath.Join(dir, "pfs")

	table, done := a.benchTable(c.Bool(privateFlag.Name), workers)
	defer done()
	reg := registry.NewLocal(table)

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration(durationFlag.Name))
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	unreg := func() {
		for _, b := range reg.Backends() {
			reg.Unregister(b.Slot)
		}
	}
	pid := int32(os.Getpid())
	for i := range workers {
		w, err := reg.Register(pid)
		if err != nil {
			cancel()
			g.Wait()
			unreg()
			return err
		}
		reg.SetQueryID(w.Slot(), int64(i+1))
		args := &benchArgs{
			opener: fio.NewOpener(w, []string{shared}),
			w:      w,
			dir:    dir,
			shared: shared,
			block:  block,
			id:     i,
		}
		g.Go(func() error { return args.run(ctx) })
	}
	err := g.Wait()

	// totals cover live slots only: report before unregistering
	rep := report.New(&report.Args{Table: table, Registry: reg})
	if tot, errT := rep.Totals(); errT == nil {
		if errP := a.printTotals(tot); errP != nil && err == nil {
			err = errP
		}
	}
	unreg()
	return err
}

// benchTable attaches (read-write) to the configured region, so that concurrently
// running `pio show` see the load, or falls back to an in-process table.
func (a *acli) benchTable(private bool, workers int) (*iostat.Table, func()) {
	if !private {
		region, err := shm.Attach(a.cfg.Shm.Path, false)
		if err == nil {
			return region.Table(), func() { region.Close() }
		}
		nlog.Warningln("bench: using in-process table:", err)
	}
	return iostat.NewTable(workers), func() {}
}

func (args *benchArgs) run(ctx context.Context) error {
	var (
		id     = strconv.Itoa(args.id)
		walDir = filepath.Join(args.shared, "pg_wal")
		datDir = filepath.Join(args.dir, "base", id)
	)
	for _, d := range []string{walDir, datDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	wal, err := args.opener.Create(filepath.Join(walDir, fmt.Sprintf("%024X", args.id+1)))
	if err != nil {
		return err
	}
	defer wal.Close()
	dat, err := args.opener.Create(filepath.Join(datDir, "16384"))
	if err != nil {
		return err
	}
	defer dat.Close()
	if err := dat.Allocate(0, benchFileSize); err != nil {
		nlog.Warningln("bench: fallocate:", err)
	}

	var (
		buf    = make([]byte, args.block)
		blocks = max(int64(benchFileSize/args.block), 1)
	)
	for n := int64(0); ; n++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := args.walAppend(wal, buf, n); err != nil {
			return err
		}
		off := (n % blocks) * int64(args.block)
		if _, err := dat.WriteAt(buf, off); err != nil {
			return err
		}
		if _, err := dat.ReadAt(buf, off); err != nil && err != io.EOF {
			return err
		}
		if n%64 == 63 {
			// pretend to wait on another backend
			args.w.BeginWait(int32(os.Getpid()), iostat.WaitPid)
			time.Sleep(time.Millisecond)
			args.w.EndWait()
		}
	}
}

func (args *benchArgs) walAppend(wal *fio.File, buf []byte, n int64) error {
	if _, err := wal.Write(buf); err != nil {
		return err
	}
	if n%benchSyncEvery != benchSyncEvery-1 {
		return nil
	}
	if err := wal.Sync(); err != nil {
		return err
	}
	// recycle the segment
	if n%(benchSyncEvery*64) == benchSyncEvery*64-1 {
		_, err := wal.Seek(0, io.SeekStart)
		return err
	}
	return nil
}
