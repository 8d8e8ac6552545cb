package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testParent  = "tnxbd.top"
	testDevHost = "localhost:3000"
)

func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		path       string
		rawQuery   string
		wantTenant bool
		wantHandle string
	}{
		{"tenant subdomain", "acme.tnxbd.top", "/", "", true, "acme"},
		{"tenant subdomain with port", "acme.tnxbd.top:8080", "/", "", true, "acme"},
		{"root domain", "tnxbd.top", "/", "", false, ""},
		{"root domain with port", "tnxbd.top:8080", "/", "", false, ""},
		{"www is reserved", "www.tnxbd.top", "/", "", false, ""},
		{"local dev root", "localhost:3000", "/", "", false, ""},
		{"local dev tenant", "acme.localhost:3000", "/", "", true, "acme"},
		{"api path ignores host", "acme.tnxbd.top", "/api/foo", "", false, ""},
		{"static path ignores host", "acme.tnxbd.top", "/static/app.js", "", false, ""},
		{"dotted path ignores host", "acme.tnxbd.top", "/favicon.ico", "", false, ""},
		{"rewrite marker passes through", "acme.tnxbd.top", "/_sites/acme", "", false, ""},
		{"multi-label subdomain", "a.b.tnxbd.top", "/", "", true, "a.b"},
		{"unrelated host", "example.com", "/", "", true, "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ResolveTenant(tt.host, tt.path, tt.rawQuery, testParent, testDevHost)
			assert.Equal(t, tt.wantTenant, d.Tenant)
			assert.Equal(t, tt.wantHandle, d.Handle)
		})
	}
}

func TestResolveTenantPreservesQuery(t *testing.T) {
	d := ResolveTenant("acme.tnxbd.top", "/", "utm=x", testParent, testDevHost)
	require.True(t, d.Tenant)
	assert.Contains(t, d.Query, "site=acme")
	assert.Contains(t, d.Query, "utm=x")
}

func TestResolveTenantIdempotentInput(t *testing.T) {
	first := ResolveTenant("acme.tnxbd.top", "/", "", testParent, testDevHost)
	second := ResolveTenant("acme.tnxbd.top", "/", "", testParent, testDevHost)
	assert.Equal(t, first, second)
}

func TestTenantResolverRewrite(t *testing.T) {
	var gotSite, gotPath string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSite = r.URL.Query().Get("site")
		gotPath = r.URL.Path
	})

	handler := TenantResolver(testParent, testDevHost)(next)

	req := httptest.NewRequest("GET", "/", nil)
	req.Host = "acme.tnxbd.top"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "acme", gotSite)
	assert.Equal(t, "/", gotPath)
}

func TestTenantResolverPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("site"))
	})

	handler := TenantResolver(testParent, testDevHost)(next)

	req := httptest.NewRequest("GET", "/api/foo", nil)
	req.Host = "acme.tnxbd.top"
	handler.ServeHTTP(httptest.NewRecorder(), req)
}
