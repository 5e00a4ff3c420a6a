// Package hk provides mechanism for registering periodic callbacks
// (e.g., statistics logging) which are invoked at specified intervals.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	ratomic "sync/atomic"
	"time"

	"github.com/NVIDIA/procio/hk"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	var (
		h    *hk.Housekeeper
		done chan error
	)

	BeforeEach(func() {
		h = hk.New(false)
		done = make(chan error, 1)
		go func() { done <- h.Run() }()
		h.WaitStarted()
	})

	AfterEach(func() {
		h.Stop(nil)
		Eventually(done).Should(Receive(BeNil()))
		Expect(h.Running()).To(BeFalse())
	})

	It("should invoke registered callback periodically", func() {
		var cnt ratomic.Int32
		h.Reg("tick", func(int64) time.Duration {
			cnt.Add(1)
			return 10 * time.Millisecond
		}, 10*time.Millisecond)

		Eventually(cnt.Load).WithTimeout(2 * time.Second).Should(BeNumerically(">=", 3))

		h.Unreg("tick")
		time.Sleep(20 * time.Millisecond) // let unreg go through
		n := cnt.Load()
		Consistently(cnt.Load).WithTimeout(100 * time.Millisecond).Should(Equal(n))
	})

	It("should call right away when interval is zero", func() {
		var cnt ratomic.Int32
		h.Reg("now", func(int64) time.Duration {
			cnt.Add(1)
			return time.Hour
		}, 0)
		Eventually(cnt.Load).Should(Equal(int32(1)))
		Consistently(cnt.Load).WithTimeout(50 * time.Millisecond).Should(Equal(int32(1)))
	})

	It("should unregister once callback returns UnregInterval", func() {
		var cnt ratomic.Int32
		h.Reg("once", func(int64) time.Duration {
			cnt.Add(1)
			return hk.UnregInterval
		}, 5*time.Millisecond)

		Eventually(cnt.Load).Should(Equal(int32(1)))
		Consistently(cnt.Load).WithTimeout(50 * time.Millisecond).Should(Equal(int32(1)))

		// the name is free again
		h.Reg("once", func(int64) time.Duration {
			cnt.Add(1)
			return hk.UnregInterval
		}, 0)
		Eventually(cnt.Load).Should(Equal(int32(2)))
	})

	It("should call callbacks in the order of their deadlines", func() {
		order := make(chan string, 2)
		h.Reg("slow", func(int64) time.Duration {
			order <- "slow"
			return hk.UnregInterval
		}, 60*time.Millisecond)
		h.Reg("fast", func(int64) time.Duration {
			order <- "fast"
			return hk.UnregInterval
		}, 10*time.Millisecond)

		Eventually(order).Should(Receive(Equal("fast")))
		Eventually(order).Should(Receive(Equal("slow")))
	})
})
