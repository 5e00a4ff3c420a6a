//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"runtime"
	"strings"
)

func Assert(cond bool, a ...any) {
	if !cond {
		msg := "DEBUG PANIC: "
		if len(a) > 0 {
			msg += fmt.Sprint(a...) + ": "
		}
		_panic(msg)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		_panic("DEBUG PANIC: " + err.Error())
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		_panic("DEBUG PANIC: " + fmt.Sprintf(f, a...))
	}
}

func _panic(msg string) {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 2; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if !strings.Contains(file, "procio") {
			break
		}
		fmt.Fprintf(&sb, "\n\t%s:%d", file, line)
	}
	panic(sb.String())
}
