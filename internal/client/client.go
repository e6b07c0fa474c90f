package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/net/proxy"

	"replyserver/internal/shared/logger"
)

// Options configures a single client exchange.
type Options struct {
	Addr    string
	Timeout time.Duration
	// Socks5 is an optional SOCKS5 proxy address (host:port) to dial through.
	Socks5 string
	// HalfClose shuts down the write side after sending so the server sees EOF.
	HalfClose bool
}

func dialer(opts Options) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: opts.Timeout}
	if opts.Socks5 == "" {
		return direct, nil
	}
	d, err := proxy.SOCKS5("tcp", opts.Socks5, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// Exchange connects to opts.Addr, sends msg and returns everything the server
// writes back until it closes the connection.
func Exchange(ctx context.Context, opts Options, msg []byte) ([]byte, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	d, err := dialer(opts)
	if err != nil {
		return nil, err
	}
	conn, err := d.DialContext(ctx, "tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	logger.Debug().Str("addr", opts.Addr).Str("local_addr", conn.LocalAddr().String()).Msg("Connected")

	if len(msg) > 0 {
		if _, err := conn.Write(msg); err != nil {
			return nil, fmt.Errorf("failed to send message: %w", err)
		}
	}
	if opts.HalfClose {
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			if err := cw.CloseWrite(); err != nil {
				return nil, fmt.Errorf("failed to half-close: %w", err)
			}
		}
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		if ctx.Err() != nil {
			return reply, fmt.Errorf("failed to read reply: %w", ctx.Err())
		}
		return reply, fmt.Errorf("failed to read reply: %w", err)
	}
	return reply, nil
}
