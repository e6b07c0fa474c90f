package exchange

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"replyserver/internal/shared"
	"replyserver/internal/shared/types"
)

// ListenOptions configures Listen and the connections the listener produces.
type ListenOptions struct {
	Bind    string // IPv4 address, empty means 0.0.0.0
	Port    int    // 0 picks a free port
	Backlog int

	// MaxConnections caps concurrently open connections, 0 means unlimited.
	MaxConnections int
	// BufferSize is the receive buffer capacity of each connection.
	BufferSize int
	// IOTimeout bounds each receive and write, 0 disables deadlines.
	IOTimeout time.Duration

	// Optional counters shared by every connection of this listener.
	Received *atomic.Uint64
	Sent     *atomic.Uint64
}

func (o ListenOptions) address() string {
	bind := o.Bind
	if bind == "" {
		bind = "0.0.0.0"
	}
	return net.JoinHostPort(bind, strconv.Itoa(o.Port))
}

// Listener owns the bound, listening socket.
type Listener struct {
	ln   net.Listener
	info types.ListenerInfo
	opts ListenOptions

	closeOnce sync.Once
	closeErr  error
}

// Listen binds a stream socket on opts.Bind:opts.Port with a listen queue of
// opts.Backlog. Failures are reported as a KindBind *Error.
func Listen(ctx context.Context, opts ListenOptions) (*Listener, error) {
	addr := opts.address()
	if opts.Backlog <= 0 {
		opts.Backlog = 5
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = shared.DefaultRecvSize
	}
	if opts.Received == nil {
		opts.Received = new(atomic.Uint64)
	}
	if opts.Sent == nil {
		opts.Sent = new(atomic.Uint64)
	}

	ln, err := listenTCP4(ctx, opts)
	if err != nil {
		return nil, newError(KindBind, addr, err)
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		ln.Close()
		return nil, newError(KindBind, addr, fmt.Errorf("unexpected listener address %v", ln.Addr()))
	}
	if opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, opts.MaxConnections)
	}

	return &Listener{
		ln:   ln,
		opts: opts,
		info: types.ListenerInfo{
			Address: tcpAddr.IP.String(),
			Port:    tcpAddr.Port,
			Backlog: opts.Backlog,
		},
	}, nil
}

// Info returns the address the listener is actually bound to.
func (l *Listener) Info() types.ListenerInfo {
	return l.info
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Accept blocks until a client connects, ctx is done or the listener is closed.
// Cancelling ctx interrupts the pending accept through a deadline when the
// listener supports one and closes the listener otherwise.
func (l *Listener) Accept(ctx context.Context) (*Connection, error) {
	addr := l.ln.Addr().String()
	if err := ctx.Err(); err != nil {
		return nil, newError(KindAccept, addr, err)
	}

	dl, canDeadline := l.ln.(deadliner)
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		if canDeadline {
			dl.SetDeadline(time.Unix(1, 0))
			return
		}
		l.Close()
	})
	conn, err := l.ln.Accept()
	if !stop() && canDeadline {
		// The callback may still be running; its deadline must land first.
		<-fired
		dl.SetDeadline(time.Time{})
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, newError(KindAccept, addr, err)
	}

	return newConnection(conn, uuid.NewString(), l.opts), nil
}

// Close releases the listening socket. It is safe to call more than once;
// every call returns the result of the first.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}
