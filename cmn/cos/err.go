// Package cos provides common low-level types and utilities for all procio packages
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"strconv"
)

type (
	// the stat table was never allocated or attached
	ErrStatsUnavailable struct {
		what string
	}
	// per-pid CPU/memory sampling failed; row-local
	ErrSamplingUnavailable struct {
		cause error
		pid   int
	}
	// registry knows the slot but the stat table finds no matching live process
	ErrProcessGone struct {
		slot int
		pid  int32
	}
	ErrSignal struct {
		sig string
	}
)

var errStatsUnavailable = &ErrStatsUnavailable{}

// ErrStatsUnavailable

func NewErrStatsUnavailable(what string) *ErrStatsUnavailable {
	if what == "" {
		return errStatsUnavailable
	}
	return &ErrStatsUnavailable{what: what}
}

func (e *ErrStatsUnavailable) Error() string {
	if e.what == "" {
		return "io statistics is unavailable"
	}
	return "io statistics is unavailable: " + e.what
}

func IsErrStatsUnavailable(err error) bool {
	var e *ErrStatsUnavailable
	return errors.As(err, &e)
}

// ErrSamplingUnavailable

func NewErrSamplingUnavailable(pid int, cause error) *ErrSamplingUnavailable {
	return &ErrSamplingUnavailable{pid: pid, cause: cause}
}

func (e *ErrSamplingUnavailable) Error() string {
	s := "failed to sample process " + strconv.Itoa(e.pid)
	if e.cause == nil {
		return s
	}
	return s + ": " + e.cause.Error()
}

func (e *ErrSamplingUnavailable) Unwrap() error { return e.cause }

func IsErrSamplingUnavailable(err error) bool {
	var e *ErrSamplingUnavailable
	return errors.As(err, &e)
}

// ErrProcessGone

func NewErrProcessGone(slot int, pid int32) *ErrProcessGone {
	return &ErrProcessGone{slot: slot, pid: pid}
}

func (e *ErrProcessGone) Error() string {
	return fmt.Sprintf("process %d (slot %d) is gone", e.pid, e.slot)
}

func (e *ErrProcessGone) Slot() int { return e.slot }

func IsErrProcessGone(err error) bool {
	var e *ErrProcessGone
	return errors.As(err, &e)
}

// ErrSignal

func NewSignalError(sig fmt.Stringer) *ErrSignal { return &ErrSignal{sig: sig.String()} }

func (e *ErrSignal) Error() string { return "received signal: " + e.sig }

func IsErrSignal(err error) bool {
	var e *ErrSignal
	return errors.As(err, &e)
}
