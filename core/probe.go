// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"crypto/tls"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// StatusUnreachable marks an address that failed at the transport level
// (timeout, connection refused, TLS failure).
const StatusUnreachable = 0

type TestSpec struct {
	Scheme     string
	Port       int
	Path       string
	HostHeader string
	UserAgent  string
	Timeout    time.Duration
}

type ProbeResult struct {
	Addr          string
	StatusCode    int
	LatencyMillis float64
}

func (r ProbeResult) Unreachable() bool { return r.StatusCode == StatusUnreachable }

type Prober struct {
	workers int
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewProber(workers int, log *zap.SugaredLogger) *Prober {
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}
	return &Prober{
		workers: workers,
		client: &http.Client{
			Transport: &http.Transport{
				// Probes connect to bare IP literals with a forced Host
				// header, so no certificate can ever match.
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
				DisableKeepAlives: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect status is the measurement, not something to chase.
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// Probe tests every address once, concurrently, bounded by the worker limit.
// It never fails the batch: a transport-level failure is recorded as
// StatusUnreachable with infinite latency. Results come back in input order.
func (p *Prober) Probe(ctx context.Context, addrs []string, spec TestSpec) []ProbeResult {
	results := make([]ProbeResult, len(addrs))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			results[i] = p.probeOne(ctx, addr, spec)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Prober) probeOne(ctx context.Context, addr string, spec TestSpec) ProbeResult {
	unreachable := ProbeResult{Addr: addr, StatusCode: StatusUnreachable, LatencyMillis: math.Inf(1)}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ProbeURL(addr, spec), nil)
	if err != nil {
		return unreachable
	}
	req.Host = spec.HostHeader
	req.Header.Set("User-Agent", spec.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "close")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debugw("probe failed", "addr", addr, "err", err)
		return unreachable
	}
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	_ = resp.Body.Close()

	p.log.Debugw("probe", "addr", addr, "status", resp.StatusCode, "latency_ms", latency)

	return ProbeResult{Addr: addr, StatusCode: resp.StatusCode, LatencyMillis: latency}
}

// ProbeURL builds the per-address target URL. IPv6 literals get bracketed.
func ProbeURL(addr string, spec TestSpec) string {
	return spec.Scheme + "://" + net.JoinHostPort(addr, strconv.Itoa(spec.Port)) + spec.Path
}
