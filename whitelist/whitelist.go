// Package whitelist implements per-instance IP allow/block matching
// (C10): blocklist entries win outright, then an allowlist is checked,
// and the configured mode decides what happens to an address that
// matches neither.
package whitelist

import (
	"fmt"
	"net"
)

// Mode selects what happens to a client IP that isn't explicitly
// allow-listed.
type Mode int

const (
	// Off disables matching entirely; every address is allowed.
	Off Mode = iota
	// Permissive allows addresses outside the allowlist, but flags the
	// decision so the caller can log it.
	Permissive
	// Strict rejects any address outside the allowlist.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseMode parses the INI-file spelling of a whitelist mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "off", "":
		return Off, nil
	case "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Off, fmt.Errorf("whitelist: unknown mode %q", s)
	}
}

type entry struct {
	network *net.IPNet
	block   bool
}

// Policy is a compiled set of CIDR entries plus a mode, ready to match
// client addresses. The zero Policy allows everything (mode Off).
type Policy struct {
	mode    Mode
	entries []entry
}

// New compiles a Policy from CIDR or bare-IP strings. An entry prefixed
// with '!' is a block entry; all others are allow entries. A bare IP is
// treated as a /32.
func New(mode Mode, rules []string) (*Policy, error) {
	p := &Policy{mode: mode}
	for _, r := range rules {
		block := false
		if len(r) > 0 && r[0] == '!' {
			block = true
			r = r[1:]
		}
		if err := p.add(r, block); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Policy) add(cidr string, block bool) error {
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		ip := net.ParseIP(cidr)
		if ip == nil {
			return fmt.Errorf("whitelist: invalid IP/CIDR %q", cidr)
		}
		cidr = ip.String() + "/32"
		if ip.To4() == nil {
			cidr = ip.String() + "/128"
		}
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("whitelist: invalid IP/CIDR %q: %w", cidr, err)
	}
	p.entries = append(p.entries, entry{network: network, block: block})
	return nil
}

// Allowed reports whether ip may open a session, and whether the
// decision was made permissively (allowed only because the policy is in
// Permissive mode, and the caller should log it).
//
// Blocklist entries are checked first and always win. Absent a block
// match, an allowlist match always allows. Absent either, the mode
// decides: Off and Permissive allow (Permissive sets logOnly), Strict
// rejects.
func (p *Policy) Allowed(ip net.IP) (allow bool, logOnly bool) {
	if p == nil || p.mode == Off {
		return true, false
	}
	for _, e := range p.entries {
		if e.block && e.network.Contains(ip) {
			return false, false
		}
	}
	for _, e := range p.entries {
		if !e.block && e.network.Contains(ip) {
			return true, false
		}
	}
	if p.mode == Strict {
		return false, false
	}
	return true, true
}
