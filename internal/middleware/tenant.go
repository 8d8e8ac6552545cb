package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Paths that never route by host: the API surface, static assets, anything
// with a file extension, internal paths, and the rewrite marker itself.
var excludedPrefixes = []string{"/api", "/static", "/_internal", "/_sites"}

// Decision is the outcome of classifying one request.
type Decision struct {
	Tenant bool
	Handle string
	Query  string // merged query string for tenant rewrites
}

// ResolveTenant classifies a request as root (pass-through) or tenant. For
// tenant requests the handle is carried in the `site` query parameter,
// preserving any pre-existing parameters. Stateless: identical input yields
// an identical decision.
func ResolveTenant(host, path, rawQuery, parentDomain, localDevHost string) Decision {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return Decision{}
		}
	}
	if strings.Contains(path, ".") {
		return Decision{}
	}

	// Derive the candidate handle from the host header. The dev host suffix
	// carries its port; anything else gets the port stripped before the
	// parent domain comparison.
	candidate := strings.TrimSuffix(host, "."+localDevHost)
	if h, _, err := net.SplitHostPort(candidate); err == nil {
		candidate = h
	}
	candidate = strings.TrimSuffix(candidate, "."+parentDomain)

	if candidate == "" || candidate == "www" || candidate == parentDomain ||
		host == parentDomain || host == localDevHost {
		return Decision{}
	}

	// Multi-label hosts (a.b.parent) yield "a.b"; the registry lookup will
	// simply miss and the page renders unresolved.
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		q = url.Values{}
	}
	q.Set("site", candidate)

	return Decision{Tenant: true, Handle: candidate, Query: q.Encode()}
}

// TenantResolver rewrites tenant-host requests to address the public site
// handler by query parameter instead of routing by host.
func TenantResolver(parentDomain, localDevHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := ResolveTenant(r.Host, r.URL.Path, r.URL.RawQuery, parentDomain, localDevHost)
			if !d.Tenant {
				next.ServeHTTP(w, r)
				return
			}

			r2 := r.Clone(r.Context())
			r2.URL.RawQuery = d.Query
			next.ServeHTTP(w, r2)
		})
	}
}
