// Package revdns resolves remote IPs to hostnames via PTR lookups,
// bounded to a fixed number of concurrent queries and run on a
// dedicated cadence separate from packet ingest (spec §4.7).
package revdns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/semaphore"
)

// DefaultInterval is the resolver's fixed cadence (spec §4.7: "8s default").
const DefaultInterval = 8 * time.Second

const (
	maxConcurrentLookups = 10
	globalTimeout        = 1000 * time.Millisecond
	privateTimeout       = 200 * time.Millisecond
)

// Resolver issues PTR queries against a recursive resolver.
type Resolver struct {
	// Server is the resolver to query, "host:port". If empty, the fixed
	// public resolver returned by systemResolver (1.1.1.1:53) is used.
	Server string
	sem    *semaphore.Weighted
}

// New builds a resolver bounded to maxConcurrentLookups simultaneous
// queries (spec §5 backpressure: "DNS resolver caps concurrent lookups
// at 10").
func New(server string) *Resolver {
	return &Resolver{Server: server, sem: semaphore.NewWeighted(maxConcurrentLookups)}
}

// ResolveBatch resolves every IP in ips concurrently (bounded) and
// returns a map from IP to hostname-or-empty. A failed or timed-out
// lookup maps to "" rather than being omitted, so the caller can still
// record a negative cache entry (spec §4.7 step 3).
func (r *Resolver) ResolveBatch(ctx context.Context, ips []string) map[string]string {
	result := make(map[string]string, len(ips))
	resultCh := make(chan [2]string, len(ips))

	for _, ip := range ips {
		ip := ip
		if err := r.sem.Acquire(ctx, 1); err != nil {
			resultCh <- [2]string{ip, ""}
			continue
		}
		go func() {
			defer r.sem.Release(1)
			name := r.lookupOne(ctx, ip)
			resultCh <- [2]string{ip, name}
		}()
	}

	for range ips {
		pair := <-resultCh
		result[pair[0]] = pair[1]
	}
	return result
}

func (r *Resolver) lookupOne(parent context.Context, ip string) string {
	timeout := globalTimeout
	if isPrivateOrLoopback(ip) {
		timeout = privateTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	name, err := r.queryPTR(ctx, ip)
	if err != nil || name == "" {
		return ""
	}
	return strings.TrimSuffix(name, ".")
}

func (r *Resolver) queryPTR(ctx context.Context, ip string) (string, error) {
	reverse, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("revdns: reverse addr for %s: %w", ip, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverse, dns.TypePTR)
	msg.RecursionDesired = true

	client := new(dns.Client)
	server := r.Server
	if server == "" {
		server = systemResolver()
	}

	deadline, ok := ctx.Deadline()
	if ok {
		client.Timeout = time.Until(deadline)
	}

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", err
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return ptr.Ptr, nil
		}
	}
	return "", nil
}

// systemResolver falls back to a well-known public recursive resolver
// when no server was configured; reading /etc/resolv.conf is the
// idiomatic alternative but adds little value in a capture tool that
// already runs on the target host's own network stack.
func systemResolver() string {
	return "1.1.1.1:53"
}

func isPrivateOrLoopback(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return true
	}
	return false
}
