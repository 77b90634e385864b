// Package config reads the line-oriented, comment-aware config dialect
// described in the proxy's external interface: bind/proxy/timeout/import
// directives plus host-override records, yielding a Config and a list of
// non-fatal per-line diagnostics.
package config

import (
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnsscience/overdns/internal/matcher"
)

// HostEntry is one (matcher, IP) pair in insertion order.
type HostEntry struct {
	Matcher matcher.Matcher
	IP      net.IP
}

// HostTable is an insertion-ordered sequence of host overrides. Lookup
// returns the IP of the first matching entry; ordering is significant.
type HostTable []HostEntry

// Lookup returns the IP bound to the first matcher (in insertion order)
// that matches domain.
func (t HostTable) Lookup(domain string) (net.IP, bool) {
	for _, e := range t {
		if e.Matcher.Match(domain) {
			return e.IP, true
		}
	}
	return nil, false
}

// Config is the result of parsing a config file and all of its (possibly
// nested) imports.
type Config struct {
	Bind    []*net.UDPAddr
	Proxy   []*net.UDPAddr
	Hosts   HostTable
	Timeout Timeout
	Invalid []Diagnostic
}

// Load reads path (creating it and its parent directories if absent) and
// parses it, following import directives. The returned error is only
// non-nil for I/O failures on the root file; malformed lines become
// Diagnostics instead.
func Load(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return parseFile(abs, data, map[string]struct{}{abs: {}})
}

// parseFile parses the contents of one file (already read into data),
// recursing into import directives. inFlight holds the canonicalized
// paths of every file currently being expanded, to turn import cycles
// into diagnostics instead of infinite recursion.
func parseFile(path string, data []byte, inFlight map[string]struct{}) (*Config, error) {
	cfg := &Config{}
	dir := filepath.Dir(path)

	lines := strings.Split(string(data), "\n")
	for i, raw := range lines {
		lineNo := uint32(i + 1)

		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagOther})
			continue
		}
		left, right := fields[0], fields[1]

		switch left {
		case "bind":
			addr, err := net.ResolveUDPAddr("udp", right)
			if err != nil {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagSocketAddr})
				continue
			}
			cfg.Bind = append(cfg.Bind, addr)

		case "proxy":
			addr, err := net.ResolveUDPAddr("udp", right)
			if err != nil {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagSocketAddr})
				continue
			}
			cfg.Proxy = append(cfg.Proxy, addr)

		case "timeout":
			d, err := parseDuration(right)
			if err != nil {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagTimeout})
				continue
			}
			cfg.Timeout = timeoutValue(d)

		case "import":
			importPath := right
			if !filepath.IsAbs(importPath) {
				importPath = filepath.Join(dir, importPath)
			}
			canon, err := filepath.Abs(importPath)
			if err != nil {
				canon = importPath
			}

			if _, active := inFlight[canon]; active {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagOther})
				continue
			}

			subData, err := os.ReadFile(canon)
			if err != nil {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagOther})
				continue
			}

			childInFlight := make(map[string]struct{}, len(inFlight)+1)
			for k := range inFlight {
				childInFlight[k] = struct{}{}
			}
			childInFlight[canon] = struct{}{}

			sub, err := parseFile(canon, subData, childInFlight)
			if err != nil {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: DiagOther})
				continue
			}

			cfg.Bind = append(cfg.Bind, sub.Bind...)
			cfg.Proxy = append(cfg.Proxy, sub.Proxy...)
			cfg.Hosts = append(cfg.Hosts, sub.Hosts...)
			cfg.Invalid = append(cfg.Invalid, sub.Invalid...)
			if sub.Timeout.Set {
				cfg.Timeout = sub.Timeout
			}

		default:
			entry, diag, ok := parseHostRecord(left, right)
			if !ok {
				cfg.Invalid = append(cfg.Invalid, Diagnostic{Line: lineNo, Source: raw, Kind: diag})
				continue
			}
			cfg.Hosts = append(cfg.Hosts, entry)
		}
	}

	return cfg, nil
}

// parseHostRecord disambiguates a (left, right) token pair into a host
// override: whichever token parses as an IP supplies the address, the
// other supplies the domain the matcher is built from.
func parseHostRecord(left, right string) (HostEntry, DiagnosticKind, bool) {
	var domain string
	var ip net.IP

	if addr := net.ParseIP(right); addr != nil {
		domain, ip = left, addr
	} else if addr := net.ParseIP(left); addr != nil {
		domain, ip = right, addr
	} else {
		return HostEntry{}, DiagIPAddr, false
	}

	m, err := matcher.New(domain)
	if err != nil {
		return HostEntry{}, DiagRegex, false
	}

	return HostEntry{Matcher: m, IP: ip}, 0, true
}

// stripComment removes everything from (and including) the first '#' on
// the line.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
