// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"github.com/hybriddns/hybriddns.go/core"
	"golang.org/x/net/idna"
	"net/netip"
	"os"
	"time"
)

const (
	defaultSourceHostname = "a.netlify.app"
	defaultUserAgent      = "Mozilla/5.0 (Linux; Android 16; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Mobile Safari/537.36"
)

type SyncConfig struct {
	TargetDomain string `json:"target_domain"`
	ZoneID       string `json:"zone_id"`

	SourceHostnames []string `json:"source_hostnames"`

	EDNSClientSubnet string `json:"edns_client_subnet"`
	DisableEDNS      bool   `json:"disable_edns"`

	RecordTypes  []string `json:"record_types"`
	DisableProbe bool     `json:"disable_probe"`

	Scheme              string `json:"scheme"`
	Port                int    `json:"port"`
	TestPath            string `json:"test_path"`
	HostHeader          string `json:"host_header"`
	UserAgent           string `json:"user_agent"`
	AcceptedStatusCodes []int  `json:"accepted_status_codes"`
	TopN                int    `json:"top_n"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	MaxWorkers          int    `json:"max_workers"`

	// The credential never lives on disk.
	APIToken string `json:"-"`
}

// LoadSyncConfig reads the optional JSON config file, overlays the
// environment (CLOUDFLARE_API_TOKEN, CLOUDFLARE_ZONE_ID, TARGET_DOMAIN,
// SOURCE_HOSTNAME), fills defaults and validates before any network call.
func LoadSyncConfig(path string) (*SyncConfig, error) {
	config := &SyncConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		config, err = UnmarshalJSON(data, config)
		if err != nil {
			return nil, fmt.Errorf("loading config in JSON failed: %v", err)
		}
	}

	if v := os.Getenv("TARGET_DOMAIN"); v != "" {
		config.TargetDomain = v
	}
	if v := os.Getenv("CLOUDFLARE_ZONE_ID"); v != "" {
		config.ZoneID = v
	}
	if v := os.Getenv("SOURCE_HOSTNAME"); v != "" {
		config.SourceHostnames = []string{v}
	}
	config.APIToken = os.Getenv("CLOUDFLARE_API_TOKEN")

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *SyncConfig) applyDefaults() {
	if len(c.SourceHostnames) == 0 {
		c.SourceHostnames = []string{defaultSourceHostname}
	}
	if len(c.RecordTypes) == 0 {
		c.RecordTypes = []string{"A", "AAAA"}
	}
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	if c.Port == 0 {
		c.Port = 443
	}
	if c.TestPath == "" {
		c.TestPath = "/"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if len(c.AcceptedStatusCodes) == 0 {
		c.AcceptedStatusCodes = []int{200, 404}
	}
	if c.TopN == 0 {
		c.TopN = core.DefaultTopN
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int(core.DefaultProbeTimeout / time.Second)
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = core.DefaultMaxWorkers
	}
	if c.DisableEDNS {
		c.EDNSClientSubnet = ""
	}
}

func (c *SyncConfig) validate() (err error) {
	if c.APIToken == "" {
		return fmt.Errorf("environment variable CLOUDFLARE_API_TOKEN is not set")
	}
	if c.TargetDomain == "" {
		return fmt.Errorf("target domain is not set")
	}

	c.TargetDomain, err = idna.ToASCII(c.TargetDomain)
	if err != nil {
		return fmt.Errorf("invalid target domain: %v", err)
	}
	for i, hostname := range c.SourceHostnames {
		c.SourceHostnames[i], err = idna.ToASCII(hostname)
		if err != nil {
			return fmt.Errorf("invalid source hostname %q: %v", hostname, err)
		}
	}
	if c.HostHeader == "" {
		c.HostHeader = c.TargetDomain
	}

	for _, recordType := range c.RecordTypes {
		if recordType != "A" && recordType != "AAAA" {
			return fmt.Errorf("unsupported record type %q", recordType)
		}
	}

	switch c.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported probe scheme %q", c.Scheme)
	}

	if c.EDNSClientSubnet != "" {
		if err := ValidateClientSubnet(c.EDNSClientSubnet); err != nil {
			return err
		}
	}

	return nil
}

// ValidateClientSubnet accepts a CIDR prefix or a bare address.
func ValidateClientSubnet(subnet string) error {
	if _, err := netip.ParsePrefix(subnet); err == nil {
		return nil
	}
	if _, err := netip.ParseAddr(subnet); err == nil {
		return nil
	}
	return fmt.Errorf("invalid EDNS client subnet %q (example: \"203.0.113.1\" or \"2001:db8::/32\")", subnet)
}

func (c *SyncConfig) Options() core.SyncOptions {
	return core.SyncOptions{
		TargetDomain:    c.TargetDomain,
		SourceHostnames: c.SourceHostnames,
		RecordTypes:     c.RecordTypes,
		DisableProbe:    c.DisableProbe,
		Spec: core.TestSpec{
			Scheme:     c.Scheme,
			Port:       c.Port,
			Path:       c.TestPath,
			HostHeader: c.HostHeader,
			UserAgent:  c.UserAgent,
			Timeout:    time.Duration(c.TimeoutSeconds) * time.Second,
		},
		Policy: core.SelectionPolicy{
			AcceptedStatusCodes: c.AcceptedStatusCodes,
			TopN:                c.TopN,
		},
	}
}
