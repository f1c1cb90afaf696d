// Copyright 2026 The hybriddns.go Authors
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package cloudflare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseDomain(t *testing.T) {
	assert.Equal(t, "example.com", BaseDomain("app.example.com"))
	assert.Equal(t, "example.com", BaseDomain("deep.sub.app.example.com"))
	assert.Equal(t, "example.com", BaseDomain("example.com"))
	assert.Equal(t, "localhost", BaseDomain("localhost"))
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(context.Background(), Config{Domain: "app.example.com"}, nil)
	assert.Error(t, err)
}
