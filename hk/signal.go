// Package hk provides mechanism for registering periodic callbacks
// (e.g., statistics logging) which are invoked at specified intervals.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/sys"
)

func (hk *Housekeeper) setSignal() {
	signal.Notify(hk.sigCh,
		// ignore, log
		syscall.SIGHUP, // kill -SIGHUP
		// terminate
		syscall.SIGINT,  // kill -SIGINT (Ctrl-C)
		syscall.SIGTERM, // kill -SIGTERM
		syscall.SIGQUIT, // kill -SIGQUIT
	)
}

func (hk *Housekeeper) handleSignal(s syscall.Signal) error {
	if s == syscall.SIGHUP {
		// no-op: show up in the log with some useful info
		ngr := runtime.NumGoroutine()
		stats, err := sys.ProcessStats(os.Getpid())
		if err != nil {
			nlog.Infoln("ngr [", ngr, sys.NumCPU(), "]", err)
			return nil
		}
		nlog.Infoln("ngr [", ngr, sys.NumCPU(), "] cpu [", stats.CPU.Total, "ms ] rss [",
			cos.ToSizeIEC(int64(stats.Mem.RSS()), 1), "]")
		return nil
	}

	signal.Stop(hk.sigCh)
	err := cos.NewSignalError(s)
	hk.Stop(err)
	return err
}
