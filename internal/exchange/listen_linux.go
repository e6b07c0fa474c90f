//go:build linux

package exchange

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP4 creates the listening socket by hand so the backlog given by the
// caller reaches listen(2) unchanged. net.Listen always uses somaxconn.
func listenTCP4(ctx context.Context, opts ListenOptions) (net.Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ip, err := parseIPv4(opts.Bind)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	// fd is owned here until net.FileListener has duplicated it.
	file := os.NewFile(uintptr(fd), fmt.Sprintf("tcp4:%d", opts.Port))
	defer file.Close()

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return nil, os.NewSyscallError("setsockopt", err)
	}

	sa := &unix.SockaddrInet4{Port: opts.Port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(fd, sa); err != nil {
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, opts.Backlog); err != nil {
		return nil, os.NewSyscallError("listen", err)
	}

	return net.FileListener(file)
}
