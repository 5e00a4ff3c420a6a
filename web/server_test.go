// Package web serves procio views over HTTP as JSON, plus Prometheus metrics.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/NVIDIA/procio/iostat"
	"github.com/NVIDIA/procio/registry"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/web"

	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func get(url string, v any) int {
	resp, err := http.Get(url)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(jsoniter.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}
	return resp.StatusCode
}

var _ = Describe("Server", func() {
	var (
		table *iostat.Table
		ts    *httptest.Server
	)

	BeforeEach(func() {
		table = iostat.NewTable(4)
		Expect(table.Claim(2, 4242)).To(BeTrue())
		w := table.Writer(2)
		w.RecordOp(iostat.CatData, iostat.LocLocal, iostat.OpRead, 300*time.Microsecond, 8192)
		w.RecordOp(iostat.CatWAL, iostat.LocShared, iostat.OpWrite, 2*time.Millisecond, 4096)

		rep := report.New(&report.Args{Table: table, Registry: registry.NewFromTable(table)})
		ts = httptest.NewServer(web.NewServer(rep, "").Handler())
	})

	AfterEach(func() {
		ts.Close()
	})

	It("should serve the process summary", func() {
		var rows []report.ProcessRow
		Expect(get(ts.URL+web.URLPathProcess, &rows)).To(Equal(http.StatusOK))
		Expect(rows).To(HaveLen(1))
		Expect(*rows[0].Pid).To(Equal(int32(4242)))
		Expect(*rows[0].LocalReadBytes).To(Equal(int64(8192)))
		Expect(*rows[0].SharedWritePs).To(Equal(int64(1)))
		Expect(rows[0].WaitObject).To(BeNil())
	})

	It("should serve per-category rows", func() {
		var rows []report.IORow
		Expect(get(ts.URL+web.URLPathIO, &rows)).To(Equal(http.StatusOK))
		Expect(rows).To(HaveLen(iostat.NumCategories * iostat.NumLocations))
		var found bool
		for _, row := range rows {
			if row.FileType == "WAL" && row.FileLocation == "pfs" {
				Expect(row.WriteCount).To(Equal(int64(1)))
				Expect(row.WriteLatency).To(Equal(2000.0))
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})

	It("should serve latency histograms", func() {
		var rows []report.LatencyRow
		Expect(get(ts.URL+web.URLPathLatency, &rows)).To(Equal(http.StatusOK))
		Expect(rows).To(HaveLen(iostat.NumLocations * iostat.NumKinds))
		for _, row := range rows {
			if row.IOLocation == "local" && row.IOKind == "read" {
				Expect(row.Bucket1).To(Equal(int64(1)))
			}
		}
	})

	It("should serve totals and columns", func() {
		var tot struct {
			Rows     []report.TotalsRow `json:"rows"`
			Live     int                `json:"live"`
			Capacity int                `json:"capacity"`
		}
		Expect(get(ts.URL+web.URLPathTotals, &tot)).To(Equal(http.StatusOK))
		Expect(tot.Live).To(Equal(1))
		Expect(tot.Capacity).To(Equal(4))
		Expect(tot.Rows).To(HaveLen(iostat.NumLocations * iostat.NumKinds))

		var cols map[string][]report.Column
		Expect(get(ts.URL+web.URLPathColumns, &cols)).To(Equal(http.StatusOK))
		Expect(cols["process"]).To(Equal(report.SummaryColumns))
		Expect(cols["latency"]).To(HaveLen(len(report.LatencyColumns)))
	})

	It("should expose Prometheus metrics", func() {
		resp, err := http.Get(ts.URL + web.URLPathMetrics)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		text := string(b)
		Expect(text).To(ContainSubstring("procio_up 1"))
		Expect(text).To(ContainSubstring(`procio_io_ops_total{io_kind="write",io_location="pfs"} 1`))
	})

	It("should reject non-GET requests", func() {
		resp, err := http.Post(ts.URL+web.URLPathTotals, "application/json", strings.NewReader("{}"))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should return 503 when the table is unavailable", func() {
		srv := httptest.NewServer(web.NewServer(report.New(&report.Args{}), "").Handler())
		defer srv.Close()

		Expect(get(srv.URL+web.URLPathIO, nil)).To(Equal(http.StatusServiceUnavailable))
		Expect(get(srv.URL+web.URLPathLatency, nil)).To(Equal(http.StatusServiceUnavailable))
		Expect(get(srv.URL+web.URLPathTotals, nil)).To(Equal(http.StatusServiceUnavailable))
		// summary degrades to rows without statistics
		var rows []report.ProcessRow
		Expect(get(srv.URL+web.URLPathProcess, &rows)).To(Equal(http.StatusOK))
	})
})
