// Package hk provides mechanism for registering periodic callbacks
// (e.g., statistics logging) which are invoked at specified intervals.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"errors"
	"os"
	ratomic "sync/atomic"
	"syscall"
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/debug"
	"github.com/NVIDIA/procio/cmn/mono"
	"github.com/NVIDIA/procio/cmn/nlog"
)

const workChanCap = 48

const UnregInterval = 365 * 24 * time.Hour // to unregister upon return from the callback

var errWorkChanFull = errors.New("work channel full")

type (
	Callback func(now int64) time.Duration
	op       struct {
		f        Callback
		name     string
		interval time.Duration
	}
	timedAction struct {
		f          Callback
		name       string
		updateTime int64
	}
	timedActions []timedAction

	Housekeeper struct {
		stopCh  cos.StopCh
		sigCh   chan os.Signal
		actions *timedActions
		timer   *time.Timer
		workCh  chan op
		running ratomic.Bool
		signals bool
	}
)

// interface guard
var _ cos.Runner = (*Housekeeper)(nil)

// New returns a housekeeper; with `signals` it also terminates Run upon
// SIGINT, SIGTERM, and SIGQUIT (and logs SIGHUP).
func New(signals bool) *Housekeeper {
	hk := &Housekeeper{
		workCh:  make(chan op, workChanCap),
		sigCh:   make(chan os.Signal, 1),
		actions: &timedActions{},
		signals: signals,
	}
	hk.stopCh.Init()
	heap.Init(hk.actions)
	return hk
}

func (hk *Housekeeper) WaitStarted() {
	for !hk.running.Load() {
		time.Sleep(10 * time.Millisecond)
	}
}

func (hk *Housekeeper) Running() bool { return hk.running.Load() }

// Reg schedules `f`; interval 0 means "call right away", after which `f`
// returns the time until its next invocation.
func (hk *Housekeeper) Reg(name string, f Callback, interval time.Duration) {
	debug.Assert(interval != UnregInterval)

	hk.workCh <- op{name: name, f: f, interval: interval}

	if l, c := len(hk.workCh), workChanCap; l >= (c - c>>3) {
		nlog.Errorln(errWorkChanFull, "len", l, "cap", c)
	}
}

func (hk *Housekeeper) Unreg(name string) {
	hk.workCh <- op{name: name, interval: UnregInterval}
}

func (*Housekeeper) Name() string { return "hk" }

func (hk *Housekeeper) Stop(error) { hk.stopCh.Close() }

func (hk *Housekeeper) Run() (err error) {
	if hk.signals {
		hk.setSignal()
	}
	hk.timer = time.NewTimer(time.Hour)
	hk.running.Store(true)
	err = hk._run()
	hk.timer.Stop()
	hk.running.Store(false)
	return
}

func (hk *Housekeeper) _run() error {
	for {
		select {
		case <-hk.stopCh.Listen():
			return nil

		case <-hk.timer.C:
			if hk.actions.Len() == 0 {
				break
			}
			// call and update the heap
			var (
				item    = hk.actions.Peek()
				started = mono.NanoTime()
				ival    = item.f(started)
			)
			if ival == UnregInterval {
				heap.Remove(hk.actions, 0)
			} else {
				now := mono.NanoTime()
				item.updateTime = now + ival.Nanoseconds()
				heap.Fix(hk.actions, 0)

				if d := time.Duration(now - started); d > time.Second {
					nlog.Warningln("call[", item.name, "] duration exceeds 1s:", d.String())
				}
			}
			hk.updateTimer()

		case op := <-hk.workCh:
			idx := hk.byName(op.name)
			if op.interval != UnregInterval {
				if idx >= 0 {
					nlog.Errorln("duplicated name [", op.name, "] - not registering")
					break
				}
				ival := op.interval
				now := mono.NanoTime()
				if op.interval == 0 {
					// calling right away
					ival = op.f(now)
					if ival == UnregInterval {
						break
					}
				}
				// next time
				nt := now + ival.Nanoseconds()
				heap.Push(hk.actions, timedAction{name: op.name, f: op.f, updateTime: nt})
			} else if idx >= 0 {
				heap.Remove(hk.actions, idx)
			} else {
				nlog.Warningln(op.name, "not found (already removed?)")
			}
			hk.updateTimer()

		case s, ok := <-hk.sigCh:
			if ok {
				if err := hk.handleSignal(s.(syscall.Signal)); err != nil {
					return err
				}
			}
		}
	}
}

func (hk *Housekeeper) updateTimer() {
	if hk.actions.Len() == 0 {
		hk.timer.Stop()
		return
	}
	d := hk.actions.Peek().updateTime - mono.NanoTime()
	hk.timer.Reset(time.Duration(d))
}

func (hk *Housekeeper) byName(name string) int {
	for i, tc := range *hk.actions {
		if tc.name == name {
			return i
		}
	}
	return -1
}

//////////////////
// timedActions //
//////////////////

func (tc timedActions) Len() int           { return len(tc) }
func (tc timedActions) Less(i, j int) bool { return tc[i].updateTime < tc[j].updateTime }
func (tc timedActions) Swap(i, j int)      { tc[i], tc[j] = tc[j], tc[i] }
func (tc timedActions) Peek() *timedAction { return &tc[0] }
func (tc *timedActions) Push(x any)        { *tc = append(*tc, x.(timedAction)) }

func (tc *timedActions) Pop() any {
	old := *tc
	n := len(old)
	item := old[n-1]
	*tc = old[0 : n-1]
	return item
}
