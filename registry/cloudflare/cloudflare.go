// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"github.com/cloudflare/cloudflare-go"
	"github.com/hybriddns/hybriddns.go/core"
	"go.uber.org/zap"
	"strings"
)

var ErrZoneNotFound = errors.New("cloudflare: zone not found")

// recordTTLAuto is Cloudflare's sentinel for automatic TTL.
const recordTTLAuto = 1

type Config struct {
	APIToken string
	ZoneID   string // discovered from Domain when empty
	Domain   string
}

// Store implements core.ZoneStore against the Cloudflare v4 API.
type Store struct {
	api *cloudflare.API
	rc  *cloudflare.ResourceContainer
	log *zap.SugaredLogger
}

func New(ctx context.Context, config Config, log *zap.SugaredLogger) (*Store, error) {
	if config.APIToken == "" {
		return nil, fmt.Errorf("cloudflare: require api token")
	}

	api, err := cloudflare.NewWithAPIToken(config.APIToken)
	if err != nil {
		return nil, err
	}

	zoneID := config.ZoneID
	if zoneID == "" {
		zoneID, err = FindZoneID(ctx, api, BaseDomain(config.Domain))
		if err != nil {
			return nil, err
		}
		log.Infow("discovered zone", "zone_id", zoneID)
	}

	return &Store{api: api, rc: cloudflare.ZoneIdentifier(zoneID), log: log}, nil
}

// BaseDomain derives the registrable base domain, the last two labels.
func BaseDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) <= 2 {
		return domain
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// FindZoneID looks the base domain up among the account's zones. The first
// match wins when the provider returns several.
func FindZoneID(ctx context.Context, api *cloudflare.API, baseDomain string) (string, error) {
	zones, err := api.ListZones(ctx, baseDomain)
	if err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return "", fmt.Errorf("%w: %s", ErrZoneNotFound, baseDomain)
	}
	return zones[0].ID, nil
}

func (s *Store) ListRecords(ctx context.Context, recordType, name string) ([]core.RemoteRecord, error) {
	records, _, err := s.api.ListDNSRecords(ctx, s.rc, cloudflare.ListDNSRecordsParams{
		Type: recordType,
		Name: name,
	})
	if err != nil {
		return nil, err
	}

	remote := make([]core.RemoteRecord, len(records))
	for i, rec := range records {
		remote[i] = core.RemoteRecord{ID: rec.ID, Type: rec.Type, Name: rec.Name, Content: rec.Content}
	}
	return remote, nil
}

func (s *Store) CreateRecord(ctx context.Context, recordType, name, content string) (core.RemoteRecord, error) {
	rec, err := s.api.CreateDNSRecord(ctx, s.rc, cloudflare.CreateDNSRecordParams{
		Type:    recordType,
		Name:    name,
		Content: content,
		TTL:     recordTTLAuto,
		Proxied: cloudflare.BoolPtr(false),
	})
	if err != nil {
		return core.RemoteRecord{}, err
	}
	return core.RemoteRecord{ID: rec.ID, Type: rec.Type, Name: rec.Name, Content: rec.Content}, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.api.DeleteDNSRecord(ctx, s.rc, id)
}
