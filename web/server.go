// Package web serves procio views over HTTP as JSON, plus Prometheus metrics.
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NVIDIA/procio/cmn/cos"
	"github.com/NVIDIA/procio/cmn/nlog"
	"github.com/NVIDIA/procio/report"
	"github.com/NVIDIA/procio/stats"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	URLPathProcess = "/v1/procio/process"
	URLPathIO      = "/v1/procio/io"
	URLPathLatency = "/v1/procio/latency"
	URLPathTotals  = "/v1/procio/totals"
	URLPathColumns = "/v1/procio/columns"
	URLPathMetrics = "/metrics"
)

const (
	hdrContentType  = "Content-Type"
	contentJSON     = "application/json"
	readHdrTimeout  = 16 * time.Second
	shutdownTimeout = 4 * time.Second
)

type (
	// Source is implemented by report.Reporter.
	Source interface {
		ProcessSummary() []report.ProcessRow
		IODetailByCategory() ([]report.IORow, error)
		LatencyHistogram() ([]report.LatencyRow, error)
		Totals() (*report.Totals, error)
	}

	Server struct {
		src  Source
		mux  *http.ServeMux
		s    *http.Server
		addr string
	}

	totalsResp struct {
		Rows     []report.TotalsRow `json:"rows"`
		Live     int                `json:"live"`
		Capacity int                `json:"capacity"`
	}
)

// interface guard
var _ cos.Runner = (*Server)(nil)

func NewServer(src Source, addr string) *Server {
	h := &Server{src: src, addr: addr, mux: http.NewServeMux()}

	reg := prometheus.NewRegistry()
	reg.MustRegister(stats.NewCollector(src), collectors.NewGoCollector())

	h.mux.HandleFunc(URLPathProcess, h.get(h.httpProcess))
	h.mux.HandleFunc(URLPathIO, h.get(h.httpIO))
	h.mux.HandleFunc(URLPathLatency, h.get(h.httpLatency))
	h.mux.HandleFunc(URLPathTotals, h.get(h.httpTotals))
	h.mux.HandleFunc(URLPathColumns, h.get(h.httpColumns))
	h.mux.Handle(URLPathMetrics, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	h.s = &http.Server{
		Addr:              addr,
		Handler:           h.mux,
		ReadHeaderTimeout: readHdrTimeout,
	}
	return h
}

func (h *Server) Handler() http.Handler { return h.mux }

func (*Server) Name() string { return "web" }

func (h *Server) Run() error {
	nlog.Infof("Starting HTTP server on %s", h.addr)
	err := h.s.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		nlog.Errorf("Server terminated with error: %v", err)
		return err
	}
	return nil
}

func (h *Server) Stop(err error) {
	nlog.Infoln("Stopping", h.Name(), "err:", err)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := h.s.Shutdown(ctx); err != nil {
		nlog.Warningln("shutdown:", err)
	}
	cancel()
}

func (*Server) get(f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "invalid method "+r.Method, http.StatusMethodNotAllowed)
			return
		}
		f(w, r)
	}
}

func (h *Server) httpProcess(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.src.ProcessSummary(), "process")
}

func (h *Server) httpIO(w http.ResponseWriter, _ *http.Request) {
	rows, err := h.src.IODetailByCategory()
	if err != nil {
		writeErr(w, err, "io")
		return
	}
	writeJSON(w, rows, "io")
}

func (h *Server) httpLatency(w http.ResponseWriter, _ *http.Request) {
	rows, err := h.src.LatencyHistogram()
	if err != nil {
		writeErr(w, err, "latency")
		return
	}
	writeJSON(w, rows, "latency")
}

func (h *Server) httpTotals(w http.ResponseWriter, _ *http.Request) {
	tot, err := h.src.Totals()
	if err != nil {
		writeErr(w, err, "totals")
		return
	}
	writeJSON(w, &totalsResp{Rows: tot.Rows(), Live: tot.Live, Capacity: tot.Capacity}, "totals")
}

func (*Server) httpColumns(w http.ResponseWriter, _ *http.Request) {
	cols := map[string][]report.Column{
		"process": report.SummaryColumns,
		"io":      report.DetailColumns,
		"latency": report.LatencyColumns,
	}
	writeJSON(w, cols, "columns")
}

func writeJSON(w http.ResponseWriter, val any, tag string) {
	w.Header().Set(hdrContentType, contentJSON)
	if err := jsoniter.NewEncoder(w).Encode(val); err != nil {
		nlog.Errorf("%s: failed to write response: %v", tag, err)
	}
}

func writeErr(w http.ResponseWriter, err error, tag string) {
	status := http.StatusInternalServerError
	if cos.IsErrStatsUnavailable(err) {
		status = http.StatusServiceUnavailable
	} else {
		nlog.Errorf("%s: %v", tag, err)
	}
	http.Error(w, err.Error(), status)
}
