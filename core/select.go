// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"slices"
	"sort"
)

type SelectionPolicy struct {
	AcceptedStatusCodes []int
	TopN                int
}

func (p SelectionPolicy) accepts(code int) bool {
	return slices.Contains(p.AcceptedStatusCodes, code)
}

// Select ranks probe results by (status code ascending, latency ascending)
// and returns at most TopN addresses. Results whose status code is not
// accepted are dropped; a 200 therefore always outranks a 404 no matter how
// slow it was. The sort is stable, so input order breaks remaining ties and
// selection is deterministic.
func Select(results []ProbeResult, policy SelectionPolicy) []string {
	kept := make([]ProbeResult, 0, len(results))
	for _, r := range results {
		if policy.accepts(r.StatusCode) {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].StatusCode != kept[j].StatusCode {
			return kept[i].StatusCode < kept[j].StatusCode
		}
		return kept[i].LatencyMillis < kept[j].LatencyMillis
	})

	if policy.TopN > 0 && len(kept) > policy.TopN {
		kept = kept[:policy.TopN]
	}

	addrs := make([]string, len(kept))
	for i, r := range kept {
		addrs[i] = r.Addr
	}
	return addrs
}
