package cache

import (
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "listings"

// PageKey identifies a cached listings page.
type PageKey struct {
	// Endpoint is the host and path of the listings endpoint
	Endpoint string

	// QueryParams are the request query parameters, including skip
	QueryParams url.Values
}

// KeyForURL builds the key of a request URL.
func KeyForURL(u *url.URL) PageKey {
	return PageKey{
		Endpoint:    u.Host + u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic key string.
// Format: listings:host/path:query1=val1:query2=val2
//
// Example:
//
//	listings:api.example.com/listings/list-agencies:skip=3
func (k PageKey) String() string {
	parts := []string{keyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism; repeated values keep their order
	keys := make([]string, 0, len(k.QueryParams))
	for key := range k.QueryParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+strings.Join(k.QueryParams[key], ","))
	}

	return strings.Join(parts, ":")
}
