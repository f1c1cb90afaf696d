// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"github.com/redis/rueidis"
	"slices"
	"strings"
)

const appliedKeyPrefix = "hybriddns:applied:"

// Database remembers the last successfully applied desired set per
// (domain, record type) so a daemon run can skip the provider round-trip
// when nothing changed. Entries are written only after a fully successful
// apply; a partial failure forces a retry on the next run.
type Database struct {
	Client rueidis.Client
}

func appliedKey(domain, recordType string) string {
	return appliedKeyPrefix + domain + ":" + recordType
}

// LastApplied returns the address set recorded for (domain, recordType),
// sorted, or nil when none was recorded yet.
func (d *Database) LastApplied(ctx context.Context, domain, recordType string) ([]string, error) {
	resp := d.Client.Do(ctx, d.Client.B().Get().Key(appliedKey(domain, recordType)).Build())
	s, err := resp.ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}

func (d *Database) MarkApplied(ctx context.Context, domain, recordType string, addrs []string) error {
	sorted := slices.Clone(addrs)
	slices.Sort(sorted)
	cmd := d.Client.B().Set().Key(appliedKey(domain, recordType)).Value(strings.Join(sorted, "\n")).Build()
	return d.Client.Do(ctx, cmd).Error()
}

// SameAsApplied reports whether addrs equals the recorded set, ignoring
// order.
func (d *Database) SameAsApplied(ctx context.Context, domain, recordType string, addrs []string) (bool, error) {
	last, err := d.LastApplied(ctx, domain, recordType)
	if err != nil || last == nil {
		return false, err
	}

	sorted := slices.Clone(addrs)
	slices.Sort(sorted)
	return slices.Equal(sorted, last), nil
}
