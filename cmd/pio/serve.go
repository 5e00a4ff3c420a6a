// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/hk"
	"github.com/NVIDIA/procio/stats"
	"github.com/NVIDIA/procio/web"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

const (
	hkFlushName      = "nlog-flush"
	logFlushInterval = 10 * time.Second
)

var listenFlag = cli.StringFlag{
	Name:  "listen",
	Usage: "HTTP listen address (default: from configuration)",
}

func (a *acli) serveCmd() cli.Command {
	return cli.Command{
		Name:   "serve",
		Usage:  "serve views over HTTP (JSON and Prometheus) and log totals periodically",
		Flags:  []cli.Flag{listenFlag},
		Action: a.serveHandler,
	}
}

func (a *acli) serveHandler(c *cli.Context) error {
	addr := a.cfg.Net.Listen
	if c.IsSet(listenFlag.Name) {
		addr = c.String(listenFlag.Name)
	}
	rep, done, err := a.attach(false)
	if err != nil {
		return err
	}
	defer done()

	var (
		housekeeper = hk.New(true /*signals*/)
		server      = web.NewServer(rep, addr)
		runner      = stats.NewRunner(rep, a.cfg.Stats.Interval)
		runners     = []cos.Runner{housekeeper, server}
		g           errgroup.Group
	)
	for _, r := range runners {
		g.Go(func() error {
			err := r.Run()
			// first to terminate stops the rest
			for _, other := range runners {
				if other != r {
					other.Stop(err)
				}
			}
			return err
		})
	}
	housekeeper.WaitStarted()
	runner.Reg(housekeeper)
	housekeeper.Reg(hkFlushName, flushLogs, logFlushInterval)
	nlog.Infoln(cliName, "serving", a.cfg.Shm.Path, "on", addr)

	err = g.Wait()
	if cos.IsErrSignal(err) {
		nlog.Infoln(err)
		return nil
	}
	return err
}

// the log is otherwise flushed only when a new line arrives; idle servers
// produce none
func flushLogs(int64) time.Duration {
	nlog.Flush()
	return logFlushInterval
}
