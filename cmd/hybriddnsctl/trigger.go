// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"github.com/hybriddns/hybriddns.go/core"
	"go.uber.org/zap"
	"time"
)

// Daemon runs the sync once, then re-runs it on every timer tick until the
// context is cancelled. A failed cycle is logged and retried on the next
// tick; only startup errors are fatal in daemon mode.
func Daemon(ctx context.Context, pipeline *core.Pipeline, intervalSeconds int, log *zap.SugaredLogger) error {
	c := make(chan struct{}, 1)
	go func() { _ = TimerNotify(ctx, intervalSeconds, c) }()

	if err := pipeline.Sync(ctx); err != nil {
		log.Errorw("sync failed", "err", err)
	}

	for {
		select {
		case <-c:
			if err := pipeline.Sync(ctx); err != nil {
				log.Errorw("sync failed", "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func TimerNotify(ctx context.Context, triggerTime int, c chan<- struct{}) error {
	for {
		select {
		case <-time.After(time.Duration(triggerTime) * time.Second):
			c <- struct{}{}
		case <-ctx.Done():
			return nil
		}
	}
}
