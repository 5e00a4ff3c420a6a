// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"errors"
	"io"
	"strings"

	"github.com/NVIDIA/procio/cmn"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/shm"
	"github.com/NVIDIA/procio/sys"

	"github.com/fatih/color"
	"github.com/urfave/cli"
)

const cliName = "pio"

type acli struct {
	app  *cli.App
	out  io.Writer
	errw io.Writer
	cfg  *cmn.Config
}

// color
var (
	fred, fcyan, fgreen func(a ...any) string
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file (default: built-in defaults)",
	}
	shmFlag = cli.StringFlag{
		Name:  "shm",
		Usage: "shared-memory statistics file (overrides configuration)",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored output",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "output in JSON format",
	}
)

func newApp(out, errw io.Writer, version string) *acli {
	a := &acli{app: cli.NewApp(), out: out, errw: errw}

	fcyan = color.New(color.FgHiCyan).SprintFunc()
	fred = color.New(color.FgHiRed).SprintFunc()
	fgreen = color.New(color.FgHiGreen).SprintFunc()

	app := a.app
	app.Name = cliName
	app.Usage = "per-process I/O statistics: shared-memory table, views, and exporters"
	app.Version = version
	app.Flags = []cli.Flag{configFlag, shmFlag, noColorFlag}
	app.Writer = out
	app.ErrWriter = errw
	app.Before = a.before
	app.Commands = []cli.Command{
		a.initCmd(),
		a.removeCmd(),
		a.showCmd(),
		a.exportCmd(),
		a.serveCmd(),
		a.benchCmd(),
	}
	return a
}

func (a *acli) run(args []string) error {
	err := a.app.Run(args)
	if err == nil {
		return nil
	}
	msg := strings.TrimRight(err.Error(), "\n")
	return errors.New(fred("Error: ") + msg)
}

func (a *acli) before(c *cli.Context) (err error) {
	// only ever disable colors: the library already does so for dumb terminals
	// and redirected output
	if c.Bool(noColorFlag.Name) {
		color.NoColor = true
	}
	if path := c.String(configFlag.Name); path != "" {
		if a.cfg, err = cmn.LoadConfig(path); err != nil {
			return err
		}
	} else {
		a.cfg = cmn.DefaultConfig()
	}
	if path := c.String(shmFlag.Name); path != "" {
		a.cfg.Shm.Path = path
	}
	nlog.SetLogDir(a.cfg.Log.Dir)
	nlog.SetToStderr(a.cfg.Log.ToStderr)
	nlog.SetAlsoToStderr(a.cfg.Log.AlsoToStderr)
	nlog.SetTitle(cliName)
	return nil
}

// attach maps the configured region read-only and returns a reporter over it;
// `required` false: on failure, the reporter reports statistics unavailable.
func (a *acli) attach(required bool) (*report.Reporter, func(), error) {
	var (
		table *iostat.Table
		done  = func() {}
	)
	region, err := shm.Attach(a.cfg.Shm.Path, true)
	switch {
	case err == nil:
		table = region.Table()
		done = func() { region.Close() }
	case required:
		return nil, nil, err
	default:
		nlog.Warningln("statistics unavailable:", err)
	}
	rep := report.New(&report.Args{
		Table:    table,
		Registry: registry.NewFromTable(table),
		Sampler:  sys.NewSampler(),
		Workers:  a.cfg.Stats.SampleWorkers,
	})
	return rep, done, nil
}
