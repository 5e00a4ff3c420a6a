// Package main is the procio command-line tool: create the shared statistics
// region, show and export its views, serve them over HTTP, and run a load
// generator against it.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"os"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
)

var build string

func main() {
	a := newApp(os.Stdout, os.Stderr, "1.0."+build)
	err := a.run(os.Args)
	nlog.Flush()
	if err != nil {
		cos.Exitf("%v", err)
	}
}
