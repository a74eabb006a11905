// Package idnax contains IDNA extensions.
package idnax

import "golang.org/x/net/idna"

// ToASCII converts an IDNA-encoded domain name to ASCII.
func ToASCII(domain string) (string, error) {
	return idna.Lookup.ToASCII(domain)
}
