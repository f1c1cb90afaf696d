// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"time"
)

const (
	DefaultTopN         = 10
	DefaultProbeTimeout = 5 * time.Second
	DefaultMaxWorkers   = 20
)

// AddressSource resolves a hostname to candidate addresses of one family.
// An empty answer is not an error.
type AddressSource interface {
	Resolve(ctx context.Context, hostname, recordType string) ([]string, error)
}

type SyncOptions struct {
	TargetDomain    string
	SourceHostnames []string
	RecordTypes     []string

	// DisableProbe mirrors the resolved set verbatim instead of probing
	// and ranking it.
	DisableProbe bool

	Spec   TestSpec
	Policy SelectionPolicy
}

// Pipeline composes resolution, probing, selection and reconciliation into
// one run. All dependencies are passed in explicitly; the zero value is not
// usable.
type Pipeline struct {
	Source AddressSource
	Store  ZoneStore
	Prober *Prober
	DB     *Database // optional change-detection cache
	Log    *zap.SugaredLogger
	Opts   SyncOptions
}

// Sync runs one full probe-rank-reconcile cycle over every configured
// record type. A resolver failure aborts the run; reconciliation failures
// for one record type never stop the others.
func (p *Pipeline) Sync(ctx context.Context) error {
	var errs []error

	for _, recordType := range p.Opts.RecordTypes {
		addrs, err := p.collect(ctx, recordType)
		if err != nil {
			return err
		}
		p.Log.Infow("resolved candidates", "type", recordType, "count", len(addrs))
		if len(addrs) == 0 {
			p.Log.Warnw("no candidate addresses, skipping", "type", recordType)
			continue
		}

		desired := addrs
		if !p.Opts.DisableProbe {
			results := p.Prober.Probe(ctx, addrs, p.Opts.Spec)
			desired = Select(results, p.Opts.Policy)
		}
		if len(desired) == 0 {
			// Never wipe existing records because probing came up empty.
			p.Log.Warnw("no address passed the probe filter, skipping", "type", recordType)
			continue
		}
		p.Log.Infow("desired set", "type", recordType, "addresses", desired)

		if err := p.reconcile(ctx, recordType, desired); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// collect unions the resolved addresses of every source hostname, keeping
// first-seen order.
func (p *Pipeline) collect(ctx context.Context, recordType string) ([]string, error) {
	seen := make(map[string]bool)
	var addrs []string

	for _, hostname := range p.Opts.SourceHostnames {
		resolved, err := p.Source.Resolve(ctx, hostname, recordType)
		if err != nil {
			return nil, fmt.Errorf("resolve %s %s: %w", hostname, recordType, err)
		}
		for _, addr := range resolved {
			if !seen[addr] {
				seen[addr] = true
				addrs = append(addrs, addr)
			}
		}
	}

	return addrs, nil
}

func (p *Pipeline) reconcile(ctx context.Context, recordType string, desired []string) error {
	if p.DB != nil {
		same, err := p.DB.SameAsApplied(ctx, p.Opts.TargetDomain, recordType, desired)
		switch {
		case err != nil:
			p.Log.Warnw("state cache unavailable", "err", err)
		case same:
			p.Log.Infow("desired set unchanged since last apply, skipping", "type", recordType)
			return nil
		}
	}

	current, err := p.Store.ListRecords(ctx, recordType, p.Opts.TargetDomain)
	if err != nil {
		return fmt.Errorf("list %s records for %s: %w", recordType, p.Opts.TargetDomain, err)
	}

	plan := Reconcile(recordType, p.Opts.TargetDomain, desired, current)
	if plan.Empty() {
		p.Log.Infow("records already converged", "type", recordType, "records", len(current))
	} else if err := ApplyPlan(ctx, p.Store, plan, p.Log); err != nil {
		return err
	}

	if p.DB != nil {
		if err := p.DB.MarkApplied(ctx, p.Opts.TargetDomain, recordType, desired); err != nil {
			p.Log.Warnw("state cache write failed", "err", err)
		}
	}

	return nil
}
