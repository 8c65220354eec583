// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package cache

import (
	"strings"
	"testing"
)

func TestCanonicalizeDeterministic(t *testing.T) {
	scope := Scope{TenantID: "5", UserID: "12"}
	params := []interface{}{1, "ACTIVE", nil}

	k1 := Canonicalize("SELECT * FROM drivers WHERE id = ?", params, scope)
	k2 := Canonicalize("SELECT * FROM drivers WHERE id = ?", params, scope)

	if k1 != k2 {
		t.Errorf("identical inputs produced different keys: %q vs %q", k1, k2)
	}
}

func TestCanonicalizeNormalizesDescriptor(t *testing.T) {
	scope := Scope{TenantID: "5", UserID: "12"}

	k1 := Canonicalize("SELECT  *   FROM drivers\n\tWHERE id = ?", []interface{}{1}, scope)
	k2 := Canonicalize("select * from drivers where id = ?", []interface{}{1}, scope)

	if k1 != k2 {
		t.Errorf("whitespace/case variants produced different keys: %q vs %q", k1, k2)
	}
}

func TestCanonicalizeTenantIsolation(t *testing.T) {
	params := []interface{}{1}
	descriptor := "SELECT * FROM drivers WHERE id = ?"

	tests := []struct {
		name string
		a, b Scope
	}{
		{"different tenants", Scope{TenantID: "5", UserID: "1"}, Scope{TenantID: "6", UserID: "1"}},
		{"different users", Scope{TenantID: "5", UserID: "1"}, Scope{TenantID: "5", UserID: "2"}},
		{"anonymous vs user", Scope{TenantID: "5"}, Scope{TenantID: "5", UserID: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := Canonicalize(descriptor, params, tt.a)
			kb := Canonicalize(descriptor, params, tt.b)
			if ka == kb {
				t.Errorf("scopes %+v and %+v collided on key %q", tt.a, tt.b, ka)
			}
		})
	}
}

func TestCanonicalizeScopePrefix(t *testing.T) {
	key := Canonicalize("SELECT 1", nil, Scope{TenantID: "42", UserID: "7"})
	if !strings.HasPrefix(key, "42_7_") {
		t.Errorf("expected tenant_user prefix, got %q", key)
	}

	anon := Canonicalize("SELECT 1", nil, Scope{TenantID: "42"})
	if !strings.HasPrefix(anon, "42_anonymous_") {
		t.Errorf("expected anonymous user segment, got %q", anon)
	}
}

func TestCanonicalizeParams(t *testing.T) {
	scope := Scope{TenantID: "1", UserID: "1"}

	t.Run("empty params", func(t *testing.T) {
		key := Canonicalize("SELECT 1", nil, scope)
		if !strings.HasSuffix(key, "_no_params") {
			t.Errorf("expected no_params suffix, got %q", key)
		}
	})

	t.Run("nil param is null-safe", func(t *testing.T) {
		key := Canonicalize("SELECT 1", []interface{}{nil}, scope)
		if !strings.HasSuffix(key, "_null") {
			t.Errorf("expected null segment, got %q", key)
		}
	})

	t.Run("different params differ", func(t *testing.T) {
		k1 := Canonicalize("SELECT 1", []interface{}{1, 2}, scope)
		k2 := Canonicalize("SELECT 1", []interface{}{2, 1}, scope)
		if k1 == k2 {
			t.Error("parameter order should be significant")
		}
	})

	t.Run("composite params differ structurally", func(t *testing.T) {
		k1 := Canonicalize("SELECT 1", []interface{}{map[string]int{"a": 1}}, scope)
		k2 := Canonicalize("SELECT 1", []interface{}{map[string]int{"a": 2}}, scope)
		if k1 == k2 {
			t.Error("different composite values should produce different keys")
		}
	})
}
