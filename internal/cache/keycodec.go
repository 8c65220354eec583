// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Scope identifies whose data a cached result belongs to. TenantID and
// UserID become the key prefix, which is what keeps tenants isolated from
// each other in the shared store.
type Scope struct {
	TenantID string
	UserID   string
}

// anonymousUser is the user segment for requests without an authenticated user.
const anonymousUser = "anonymous"

// globalTenant is the tenant segment for requests outside any tenant scope.
const globalTenant = "global"

// Canonicalize derives the deterministic cache key for a query descriptor,
// its ordered parameter list, and a tenant/user scope.
//
// The descriptor is whitespace-collapsed and case-folded so that formatting
// differences in the calling SQL never produce distinct keys. Parameters are
// stringified null-safely in order. The result is prefixed with
// "{tenantID}_{userID}" so keys from different tenants can never collide.
//
// Canonicalize is pure: identical inputs always yield identical keys.
func Canonicalize(descriptor string, params []interface{}, scope Scope) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(descriptor), " "))

	tenant := scope.TenantID
	if tenant == "" {
		tenant = globalTenant
	}
	user := scope.UserID
	if user == "" {
		user = anonymousUser
	}

	return tenant + "_" + user + "_" + normalized + "_" + encodeParams(params)
}

// TenantPrefix returns the key prefix shared by every entry cached for the
// given tenant. Used by tenant-wide invalidation.
func TenantPrefix(tenantID string) string {
	if tenantID == "" {
		tenantID = globalTenant
	}
	return tenantID + "_"
}

// encodeParams stringifies an ordered parameter list into a key segment.
// Nil parameters encode as "null"; composite values are JSON-encoded so two
// structurally different values never share a segment.
func encodeParams(params []interface{}) string {
	if len(params) == 0 {
		return "no_params"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = encodeParam(p)
	}
	return sanitizeSegment(strings.Join(parts, "_"))
}

func encodeParam(p interface{}) string {
	if p == nil {
		return "null"
	}

	switch v := p.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// sanitizeSegment replaces every byte outside [a-zA-Z0-9_] with '_' so the
// parameter segment never introduces the separator characters used by the
// key layout.
func sanitizeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
