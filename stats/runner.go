// Package stats exports aggregated per-process I/O statistics to Prometheus
// and periodically logs them.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"strings"
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/hk"
	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/report"
)

const hkName = "procio-stats"

type (
	// Registrar is the subset of the housekeeper used to schedule logging.
	Registrar interface {
		Reg(name string, f hk.Callback, interval time.Duration)
		Unreg(name string)
	}

	// Runner logs table-wide deltas every `interval`; quiet when nothing happened.
	Runner struct {
		src      Source
		prev     *report.Totals
		sb       strings.Builder
		last     string
		interval time.Duration
		lines    int
	}
)

func NewRunner(src Source, interval time.Duration) *Runner {
	return &Runner{src: src, interval: interval}
}

func (r *Runner) Reg(reg Registrar) { reg.Reg(hkName, r.log, r.interval) }

func (*Runner) Unreg(reg Registrar) { reg.Unreg(hkName) }

// Lines returns the number of lines logged so far.
func (r *Runner) Lines() int { return r.lines }

// Last returns the most recently logged line.
func (r *Runner) Last() string { return r.last }

func (r *Runner) log(int64) time.Duration {
	tot, err := r.src.Totals()
	if err != nil {
		if r.prev != nil {
			nlog.Warningln("stats:", err)
		}
		r.prev = nil
		return r.interval
	}
	if line := r.format(tot); line != "" {
		nlog.Infoln(line)
		r.last = line
		r.lines++
	}
	r.prev = tot
	return r.interval
}

// format renders the delta between the current and previous totals.
// Totals sum live slots only, so they shrink when a slot is released: in that
// case the line carries absolute totals and is tagged "(reset)".
func (r *Runner) format(tot *report.Totals) string {
	var (
		prev  = r.prev
		reset bool
		empty = true
	)
	switch {
	case prev == nil:
		prev = &report.Totals{}
	case shrunk(tot, prev):
		prev, reset = &report.Totals{}, true
	}
	r.sb.Reset()
	r.sb.WriteString("live ")
	r.sb.WriteString(cos.FormatBigNum(int64(tot.Live)))
	r.sb.WriteByte('/')
	r.sb.WriteString(cos.FormatBigNum(int64(tot.Capacity)))
	if reset {
		r.sb.WriteString(" (reset)")
	}
	for _, loc := range iostat.ReportLocations {
		cur, was := &tot.Cells[loc], &prev.Cells[loc]
		for k := range iostat.NumKinds {
			kind := iostat.OpKind(k)
			n := cur.Count(kind) - was.Count(kind)
			if n == 0 {
				continue
			}
			empty = false
			r.sb.WriteString(", ")
			r.sb.WriteString(loc.String())
			r.sb.WriteByte('.')
			r.sb.WriteString(kind.String())
			r.sb.WriteByte(' ')
			r.sb.WriteString(cos.FormatBigNum(int64(n)))
			if b := tot.Bytes(loc, kind) - prev.Bytes(loc, kind); b > 0 {
				r.sb.WriteString(" (")
				r.sb.WriteString(cos.ToSizeIEC(int64(b), 1))
				r.sb.WriteByte(')')
			}
			dt := cur.Time(kind) - was.Time(kind)
			avg := time.Duration(cos.DivRound(int64(dt), int64(n)))
			r.sb.WriteString(" avg ")
			r.sb.WriteString(cos.FormatMilli(avg))
		}
	}
	if empty && !reset && prev.Live == tot.Live {
		return ""
	}
	return r.sb.String()
}

// shrunk is true when any counter went backwards since `prev`.
func shrunk(tot, prev *report.Totals) bool {
	for loc := range iostat.NumLocations {
		cur, was := &tot.Cells[loc], &prev.Cells[loc]
		if cur.CloseCount < was.CloseCount ||
			cur.ReadBytes < was.ReadBytes || cur.WriteBytes < was.WriteBytes {
			return true
		}
		for k := range iostat.NumKinds {
			kind := iostat.OpKind(k)
			if cur.Count(kind) < was.Count(kind) || cur.Time(kind) < was.Time(kind) {
				return true
			}
		}
	}
	return false
}
