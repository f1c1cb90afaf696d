// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory ZoneStore that records every call, including
// the failed ones.
type fakeStore struct {
	records []RemoteRecord
	nextID  int

	listCalls   int
	createCalls []string
	deleteCalls []string

	createErr map[string]error
	deleteErr map[string]error
}

func (s *fakeStore) ListRecords(_ context.Context, recordType, name string) ([]RemoteRecord, error) {
	s.listCalls++
	var out []RemoteRecord
	for _, rec := range s.records {
		if rec.Type == recordType && rec.Name == name {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateRecord(_ context.Context, recordType, name, content string) (RemoteRecord, error) {
	s.createCalls = append(s.createCalls, content)
	if err := s.createErr[content]; err != nil {
		return RemoteRecord{}, err
	}
	s.nextID++
	rec := RemoteRecord{ID: fmt.Sprintf("id-%d", s.nextID), Type: recordType, Name: name, Content: content}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *fakeStore) DeleteRecord(_ context.Context, id string) error {
	s.deleteCalls = append(s.deleteCalls, id)
	for _, rec := range s.records {
		if rec.ID == id {
			if err := s.deleteErr[rec.Content]; err != nil {
				return err
			}
		}
	}
	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) contents() []string {
	var out []string
	for _, rec := range s.records {
		out = append(out, rec.Content)
	}
	return out
}

func seedStore(recordType, name string, contents ...string) *fakeStore {
	s := &fakeStore{}
	for _, content := range contents {
		s.nextID++
		s.records = append(s.records, RemoteRecord{
			ID:      fmt.Sprintf("id-%d", s.nextID),
			Type:    recordType,
			Name:    name,
			Content: content,
		})
	}
	return s
}

func TestReconcileMinimalMutation(t *testing.T) {
	current := []RemoteRecord{
		{ID: "id-1", Type: "A", Name: "cdn.example.com", Content: "192.0.2.1"},
		{ID: "id-2", Type: "A", Name: "cdn.example.com", Content: "192.0.2.2"},
	}

	plan := Reconcile("A", "cdn.example.com", []string{"192.0.2.2", "192.0.2.3"}, current)

	// 192.0.2.2 survives untouched, never deleted and recreated.
	require.Len(t, plan.ToDelete, 1)
	assert.Equal(t, "id-1", plan.ToDelete[0].ID)
	assert.Equal(t, []string{"192.0.2.3"}, plan.ToCreate)
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	desired := []string{"192.0.2.2", "192.0.2.3"}

	store := seedStore("A", "cdn.example.com", "192.0.2.1", "192.0.2.2")

	current, err := store.ListRecords(ctx, "A", "cdn.example.com")
	require.NoError(t, err)
	plan := Reconcile("A", "cdn.example.com", desired, current)
	require.NoError(t, ApplyPlan(ctx, store, plan, log))
	assert.ElementsMatch(t, desired, store.contents())

	// A second pass over the converged store plans nothing.
	current, err = store.ListRecords(ctx, "A", "cdn.example.com")
	require.NoError(t, err)
	again := Reconcile("A", "cdn.example.com", desired, current)
	assert.True(t, again.Empty())
}

func TestReconcileEmptyCurrent(t *testing.T) {
	plan := Reconcile("AAAA", "cdn.example.com", []string{"2001:db8::1"}, nil)

	assert.Empty(t, plan.ToDelete)
	assert.Equal(t, []string{"2001:db8::1"}, plan.ToCreate)
}

func TestApplyPlanDeletesBeforeCreates(t *testing.T) {
	ctx := context.Background()
	store := seedStore("A", "cdn.example.com", "192.0.2.1")

	plan := &Plan{
		Type:     "A",
		Name:     "cdn.example.com",
		ToDelete: []RemoteRecord{store.records[0]},
		ToCreate: []string{"192.0.2.9"},
	}
	require.NoError(t, ApplyPlan(ctx, store, plan, zap.NewNop().Sugar()))

	require.Len(t, store.deleteCalls, 1)
	assert.Equal(t, []string{"192.0.2.9"}, store.contents())
}

func TestApplyPlanPartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("api error 500")

	store := seedStore("A", "cdn.example.com", "192.0.2.1")
	store.createErr = map[string]error{"192.0.2.2": boom}

	plan := &Plan{
		Type:     "A",
		Name:     "cdn.example.com",
		ToDelete: []RemoteRecord{store.records[0]},
		ToCreate: []string{"192.0.2.2", "192.0.2.3", "192.0.2.4"},
	}
	err := ApplyPlan(ctx, store, plan, zap.NewNop().Sugar())

	// Every planned operation is still attempted, and the run reports the
	// failure.
	require.ErrorIs(t, err, boom)
	assert.Len(t, store.deleteCalls, 1)
	assert.Equal(t, []string{"192.0.2.2", "192.0.2.3", "192.0.2.4"}, store.createCalls)
	assert.ElementsMatch(t, []string{"192.0.2.3", "192.0.2.4"}, store.contents())
}
