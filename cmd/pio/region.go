// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"os"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/shm"

	"github.com/urfave/cli"
)

var (
	slotsFlag = cli.IntFlag{
		Name:  "slots",
		Usage: "number of statistics slots (default: from configuration)",
	}
	forceFlag = cli.BoolFlag{
		Name:  "force",
		Usage: "overwrite existing region",
	}
)

func (a *acli) initCmd() cli.Command {
	return cli.Command{
		Name:   "init",
		Usage:  "create shared-memory statistics region",
		Flags:  []cli.Flag{slotsFlag, forceFlag},
		Action: a.initHandler,
	}
}

func (a *acli) removeCmd() cli.Command {
	return cli.Command{
		Name:   "remove",
		Usage:  "remove shared-memory statistics region",
		Action: a.removeHandler,
	}
}

func (a *acli) initHandler(c *cli.Context) error {
	slots := a.cfg.Shm.Slots
	if c.IsSet(slotsFlag.Name) {
		slots = c.Int(slotsFlag.Name)
	}
	if slots <= 0 {
		return fmt.Errorf("invalid --%s %d (expecting positive integer)", slotsFlag.Name, slots)
	}
	path := a.cfg.Shm.Path
	if _, err := os.Stat(path); err == nil && !c.Bool(forceFlag.Name) {
		return fmt.Errorf("%s already exists (use --%s to overwrite)", path, forceFlag.Name)
	}
	region, err := shm.Create(path, slots)
	if err != nil {
		return err
	}
	defer region.Close()
	h := region.Header()
	fmt.Fprintf(a.out, "created %s: %d slots x %s (%s), layout %x\n", fgreen(path), h.Slots,
		cos.ToSizeIEC(int64(h.SlotSize), 1), cos.ToSizeIEC(int64(shm.Size(slots)), 1), iostat.LayoutHash())
	return nil
}

func (a *acli) removeHandler(*cli.Context) error {
	path := a.cfg.Shm.Path
	if err := shm.Remove(path); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "removed", path)
	return nil
}
