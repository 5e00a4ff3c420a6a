//go:build !debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func Assert(bool, ...any)          {}
func AssertNoErr(error)            {}
func Assertf(bool, string, ...any) {}
