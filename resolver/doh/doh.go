// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package doh

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/miekg/dns"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultEndpoint = "https://dns.google/resolve"

// Client queries a DNS-over-HTTPS JSON endpoint.
type Client struct {
	endpoint     string
	clientSubnet string
	http         *http.Client
	log          *zap.SugaredLogger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithClientSubnet sets an EDNS Client Subnet hint so the resolver returns
// answers relevant to that network location.
func WithClientSubnet(subnet string) Option {
	return func(c *Client) { c.clientSubnet = subnet }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

func New(log *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type answer struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	Data string `json:"data"`
}

type response struct {
	Status int      `json:"Status"`
	Answer []answer `json:"Answer"`
}

// Resolve returns the addresses answered for (hostname, recordType), where
// recordType is "A" or "AAAA". A name without records of that type yields
// an empty slice, not an error.
func (c *Client) Resolve(ctx context.Context, hostname, recordType string) ([]string, error) {
	typeCode, ok := dns.StringToType[recordType]
	if !ok {
		return nil, fmt.Errorf("doh: unknown record type %q", recordType)
	}

	q := url.Values{}
	q.Set("name", hostname)
	q.Set("type", recordType)
	if c.clientSubnet != "" {
		q.Set("edns_client_subnet", c.clientSubnet)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doh: query %s %s: %w", hostname, recordType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doh: query %s %s: unexpected status %d", hostname, recordType, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("doh: read response: %w", err)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("doh: decode response: %w", err)
	}
	if r.Status != dns.RcodeSuccess && r.Status != dns.RcodeNameError {
		return nil, fmt.Errorf("doh: query %s %s: rcode %s", hostname, recordType, dns.RcodeToString[r.Status])
	}

	var addrs []string
	for _, a := range r.Answer {
		// CNAME chain entries share the answer section. Keep only the
		// requested type.
		if a.Type == typeCode {
			addrs = append(addrs, a.Data)
		}
	}

	c.log.Debugw("doh answer", "hostname", hostname, "type", recordType, "count", len(addrs))

	return addrs, nil
}
