//go:build !linux

package exchange

import (
	"context"
	"net"
)

// listenTCP4 on non-Linux platforms falls back to the net package.
// The backlog is left to the operating system default there.
func listenTCP4(ctx context.Context, opts ListenOptions) (net.Listener, error) {
	ip, err := parseIPv4(opts.Bind)
	if err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp4", (&net.TCPAddr{IP: ip, Port: opts.Port}).String())
}
