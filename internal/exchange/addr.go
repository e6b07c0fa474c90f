package exchange

import (
	"fmt"
	"net"
)

// parseIPv4 accepts an empty string as the wildcard address.
func parseIPv4(bind string) (net.IP, error) {
	if bind == "" {
		return net.IPv4zero.To4(), nil
	}
	ip := net.ParseIP(bind)
	if ip == nil {
		return nil, fmt.Errorf("invalid bind address %q", bind)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("bind address %q is not IPv4", bind)
	}
	return ip4, nil
}
