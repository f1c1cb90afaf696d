// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
)

// RemoteRecord is an address record owned by the remote store. IDs are
// assigned by the provider; the engine only reads them back and deletes by
// them.
type RemoteRecord struct {
	ID      string
	Type    string
	Name    string
	Content string
}

// ZoneStore is the authoritative record store boundary.
type ZoneStore interface {
	ListRecords(ctx context.Context, recordType, name string) ([]RemoteRecord, error)
	CreateRecord(ctx context.Context, recordType, name, content string) (RemoteRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Plan is the minimal set of mutations that converges the remote records
// for one (record type, name) pair onto a desired address set.
type Plan struct {
	Type string
	Name string

	ToDelete []RemoteRecord
	ToCreate []string
}

func (p *Plan) Empty() bool { return len(p.ToDelete) == 0 && len(p.ToCreate) == 0 }

// Reconcile diffs the current records against the desired addresses.
// Records whose content is already desired are left untouched, never
// deleted and recreated, so re-running against a converged store yields an
// empty plan.
func Reconcile(recordType, name string, desired []string, current []RemoteRecord) *Plan {
	plan := &Plan{Type: recordType, Name: name}

	want := make(map[string]bool, len(desired))
	for _, addr := range desired {
		want[addr] = true
	}

	have := make(map[string]bool, len(current))
	for _, rec := range current {
		have[rec.Content] = true
		if !want[rec.Content] {
			plan.ToDelete = append(plan.ToDelete, rec)
		}
	}

	for _, addr := range desired {
		if !have[addr] {
			plan.ToCreate = append(plan.ToCreate, addr)
		}
	}

	return plan
}

// ApplyPlan executes the plan best-effort: a failed call is logged and
// collected but never stops the remaining operations. Deletions go first to
// avoid transient duplicates when the store permits them.
func ApplyPlan(ctx context.Context, store ZoneStore, plan *Plan, log *zap.SugaredLogger) error {
	var errs []error

	for _, rec := range plan.ToDelete {
		log.Infow("delete record", "type", plan.Type, "name", rec.Name, "content", rec.Content)
		if err := store.DeleteRecord(ctx, rec.ID); err != nil {
			log.Errorw("delete record failed", "type", plan.Type, "content", rec.Content, "err", err)
			errs = append(errs, fmt.Errorf("delete %s record %s: %w", plan.Type, rec.Content, err))
		}
	}

	for _, addr := range plan.ToCreate {
		log.Infow("create record", "type", plan.Type, "name", plan.Name, "content", addr)
		if _, err := store.CreateRecord(ctx, plan.Type, plan.Name, addr); err != nil {
			log.Errorw("create record failed", "type", plan.Type, "content", addr, "err", err)
			errs = append(errs, fmt.Errorf("create %s record %s: %w", plan.Type, addr, err))
		}
	}

	return errors.Join(errs...)
}
