// Package acl gates which client source addresses C7's accept loop will
// even hand to the resolver, ahead of and independent from C10's
// per-client rate limiting. A rejected client gets no reply at all, the
// same silent-drop behavior the resolver uses when every upstream fails.
package acl

import (
	"net"
	"sync"
)

// rule is one admission decision over a CIDR block, kept in the order it
// was added.
type rule struct {
	net   *net.IPNet
	allow bool
}

// Gate evaluates client addresses against an ordered list of net rules,
// first match wins — the same insertion-order-significant lookup C2's
// host table uses for domain matching, applied here to source networks
// instead of domain patterns. A client matching no rule falls back to
// the default policy.
type Gate struct {
	mu           sync.RWMutex
	rules        []rule
	defaultAllow bool
}

// NewGate builds a Gate with no rules. defaultAllow governs any client
// matching nothing: true admits everyone not explicitly denied, false
// admits only clients explicitly allowed.
func NewGate(defaultAllow bool) *Gate {
	return &Gate{defaultAllow: defaultAllow}
}

// Allow appends an admission rule for cidr. cidr may be a CIDR block
// ("10.0.0.0/8") or a bare address, treated as a /32 (or /128 for IPv6).
func (g *Gate) Allow(cidr string) error {
	return g.addRule(cidr, true)
}

// Deny appends a rejection rule for cidr, same notation as Allow.
func (g *Gate) Deny(cidr string) error {
	return g.addRule(cidr, false)
}

func (g *Gate) addRule(cidr string, allow bool) error {
	ipnet, err := parseNet(cidr)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.rules = append(g.rules, rule{net: ipnet, allow: allow})
	g.mu.Unlock()
	return nil
}

func parseNet(cidr string) (*net.IPNet, error) {
	if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
		return ipnet, nil
	}
	ip := net.ParseIP(cidr)
	if ip == nil {
		_, _, err := net.ParseCIDR(cidr) // reuse net's own error message
		return nil, err
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// Admit reports whether ip may be dispatched to the resolver: the first
// matching rule, in the order it was added, decides; no match falls back
// to the default policy.
func (g *Gate) Admit(ip net.IP) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, r := range g.rules {
		if r.net.Contains(ip) {
			return r.allow
		}
	}
	return g.defaultAllow
}

// Reset discards every rule, leaving only the default policy in effect.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.rules = nil
	g.mu.Unlock()
}
