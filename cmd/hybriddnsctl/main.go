// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/hybriddns/hybriddns.go/core"
	"github.com/hybriddns/hybriddns.go/registry/cloudflare"
	"github.com/hybriddns/hybriddns.go/resolver/doh"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var (
	configPath = flag.String("config", "", "Sync configuration file location.")

	asDaemon = flag.Bool("daemon", false, "Keep running and re-sync on a timer.")
	interval = flag.Int("interval", 300, "Seconds between daemon syncs.")

	redisAddr = flag.String("redis-addr", "", "Redis address for the change-detection cache. Empty disables the cache.")
	redisIdx  = flag.Int("redis-db", 0, "Redis database index.")

	dohEndpoint = flag.String("doh-endpoint", doh.DefaultEndpoint, "DNS-over-HTTPS resolver endpoint.")

	debug = flag.Bool("debug", false, "Verbose per-probe logging.")

	signalC = make(chan os.Signal, 1)
)

func main() {
	flag.Parse()

	logger, err := buildLogger(*debug || debugEnv())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger.Sugar()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func debugEnv() bool {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func buildLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if !debug {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return config.Build()
}

func run(log *zap.SugaredLogger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Notify(signalC, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalC
		cancel()
	}()

	config, err := LoadSyncConfig(*configPath)
	if err != nil {
		return err
	}
	log.Debugw("effective config", "config", string(MarshalJSON(config)))

	store, err := cloudflare.New(ctx, cloudflare.Config{
		APIToken: config.APIToken,
		ZoneID:   config.ZoneID,
		Domain:   config.TargetDomain,
	}, log)
	if err != nil {
		return err
	}

	var sourceOpts []doh.Option
	if *dohEndpoint != doh.DefaultEndpoint {
		sourceOpts = append(sourceOpts, doh.WithEndpoint(*dohEndpoint))
	}
	if config.EDNSClientSubnet != "" {
		log.Infow("EDNS client subnet steering enabled", "subnet", config.EDNSClientSubnet)
		sourceOpts = append(sourceOpts, doh.WithClientSubnet(config.EDNSClientSubnet))
	}

	pipeline := &core.Pipeline{
		Source: doh.New(log, sourceOpts...),
		Store:  store,
		Prober: core.NewProber(config.MaxWorkers, log),
		Log:    log,
		Opts:   config.Options(),
	}

	if *redisAddr != "" {
		dbClient, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{*redisAddr},
			SelectDB:    *redisIdx,
		})
		if err != nil {
			return err
		}
		defer dbClient.Close()

		err = dbClient.Do(ctx, dbClient.B().Ping().Build()).Error()
		if err != nil {
			return fmt.Errorf("ping redis server: %v", err)
		}

		pipeline.DB = &core.Database{Client: dbClient}
	}

	log.Infow("sync start", "target", config.TargetDomain, "sources", config.SourceHostnames, "types", config.RecordTypes)

	if !*asDaemon {
		return pipeline.Sync(ctx)
	}

	return Daemon(ctx, pipeline, *interval, log)
}
