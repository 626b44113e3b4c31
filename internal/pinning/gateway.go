package pinning

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultURLExpiry is the lifetime advertised on gateway URLs.
const DefaultURLExpiry = time.Hour

// Gateway renders publicly resolvable URLs for content ids.
type Gateway struct {
	base   string
	expiry time.Duration
}

// NewGateway normalizes base, adding https:// when no scheme is present. A
// zero expiry means DefaultURLExpiry.
func NewGateway(base string, expiry time.Duration) Gateway {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return Gateway{base: base, expiry: expiry}
}

// URL returns <base>/ipfs/<cid>?expires=<seconds>.
func (g Gateway) URL(cid string) string {
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(int64(g.expiry/time.Second), 10))
	return g.base + "/ipfs/" + url.PathEscape(cid) + "?" + q.Encode()
}
