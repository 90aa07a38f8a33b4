// Package privacy provides utilities for handling personally identifiable
// information (PII) before it reaches logs or metrics.
package privacy

import "net/netip"

// Prefix lengths retained after anonymization. Everything past the prefix is
// zeroed, so an anonymized value never identifies a single host.
const (
	v4PrefixBits = 24
	v6PrefixBits = 48
)

// AnonymizeIP truncates an IP address to its network prefix, /24 for IPv4
// ("192.168.1.47" -> "192.168.1.0") and /48 for IPv6
// ("2001:db8:85a3::8a2e:370:7334" -> "2001:db8:85a3::").
//
// The anonymized form is what throttle logs and fingerprint derivation use;
// full addresses never leave the metadata middleware.
//
// Returns "invalid" for unparseable input and "unknown" for empty strings.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := v6PrefixBits
	if addr.Is4() {
		bits = v4PrefixBits
	}

	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
