// Package clientip resolves the address of the client behind a request.
package clientip

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Extractor reads the client IP from the connection address. Forwarding
// headers are consulted only when configured, and only when the peer is a
// trusted proxy.
type Extractor struct {
	headers []string
	proxies []netip.Prefix
}

// New creates an Extractor. With no headers the connection address is always
// used. With headers but no proxies the immediate peer is the only trusted
// hop, so the right-most forwarded address wins. Proxies are CIDRs or bare
// addresses.
func New(trustedHeaders, trustedProxies []string) (*Extractor, error) {
	e := &Extractor{headers: trustedHeaders}
	for _, p := range trustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			addr, err := netip.ParseAddr(p)
			if err != nil {
				return nil, fmt.Errorf("failed to parse trusted proxy %q: %w", p, err)
			}
			e.proxies = append(e.proxies, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trusted proxy %q: %w", p, err)
		}
		e.proxies = append(e.proxies, prefix.Masked())
	}
	return e, nil
}

// Extract returns the client address of r. Forwarded lists are walked from
// the right, skipping trusted proxies, since only the entries appended by
// trusted hops can be relied on.
func (e *Extractor) Extract(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	if len(e.headers) == 0 || !e.trusted(remote) {
		return remote
	}

	for _, header := range e.headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		hops := strings.Split(value, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				return remote
			}
			if i > 0 && e.trustedAddr(addr) {
				continue
			}
			return addr.Unmap().String()
		}
	}

	return remote
}

func (e *Extractor) trusted(host string) bool {
	if len(e.proxies) == 0 {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return e.trustedAddr(addr)
}

func (e *Extractor) trustedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range e.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
