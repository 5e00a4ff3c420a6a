// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/NVIDIA/procio/export"

	"github.com/urfave/cli"
)

var (
	viewFlag = cli.StringFlag{
		Name:  "view",
		Usage: "view to export: " + strings.Join(export.Views, ", "),
		Value: export.ViewProcess,
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "output format: jsonl or parquet",
		Value: "jsonl",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "destination file or directory (default: stdout for jsonl, <view>-<timestamp>.parquet otherwise)",
	}
)

func (a *acli) exportCmd() cli.Command {
	return cli.Command{
		Name:   "export",
		Usage:  "export a view as JSON lines or parquet",
		Flags:  []cli.Flag{viewFlag, formatFlag, outFlag},
		Action: a.exportHandler,
	}
}

func (a *acli) exportHandler(c *cli.Context) error {
	f, err := export.ParseFormat(c.String(formatFlag.Name))
	if err != nil {
		return err
	}
	view := c.String(viewFlag.Name)
	rep, done, err := a.attach(view != export.ViewProcess)
	if err != nil {
		return err
	}
	defer done()

	out := c.String(outFlag.Name)
	if out == "" && f == export.FormatJSONL {
		_, err := export.View(a.out, rep, view, f)
		return err
	}
	if out == "" || strings.HasSuffix(out, string(filepath.Separator)) {
		name := view + "-" + time.Now().Format("20060102-150405") + f.Ext()
		out = filepath.Join(out, name)
	}
	if err := export.ToFile(out, rep, view, f); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "exported", view, "to", fgreen(out))
	return nil
}
