package exchange

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"replyserver/internal/shared/logger"
	"replyserver/internal/shared/types"
)

// Options configures a Server.
type Options struct {
	Listen ListenOptions
	// Once serves exactly one connection and then stops accepting.
	Once    bool
	Payload []byte
	MaxLen  int

	Out      io.Writer
	Observer types.ExchangeObserver
}

// Server binds once and dispatches every accepted connection to its own goroutine.
type Server struct {
	opts     Options
	listener *Listener
	handler  *Handler

	received atomic.Uint64
	sent     atomic.Uint64
	active   atomic.Int64
	total    atomic.Uint64
	failed   atomic.Uint64

	closing   atomic.Bool
	closeOnce sync.Once
	waitGroup sync.WaitGroup
}

func NewServer(opts Options) *Server {
	s := &Server{opts: opts}
	s.opts.Listen.Received = &s.received
	s.opts.Listen.Sent = &s.sent
	s.handler = NewHandler(opts.Payload, opts.MaxLen, opts.Out, opts.Observer)
	return s
}

// InitializeListener 负责监听端口，但不阻塞。返回实际监听的端口号。
func (s *Server) InitializeListener(ctx context.Context) (int, error) {
	ln, err := Listen(ctx, s.opts.Listen)
	if err != nil {
		return 0, err
	}
	s.listener = ln
	info := ln.Info()
	logger.Info().
		Str("listen_addr", ln.Addr().String()).
		Int("backlog", info.Backlog).
		Bool("once", s.opts.Once).
		Msg(">>> Server is listening.")
	return info.Port, nil
}

// ListenerInfo returns nil before InitializeListener succeeded.
func (s *Server) ListenerInfo() *types.ListenerInfo {
	if s.listener == nil {
		return nil
	}
	info := s.listener.Info()
	return &info
}

// Serve runs the accept loop until ctx is done or Close is called.
// In once mode it returns after the first exchange with that exchange's error.
// Serve waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server: Serve called before InitializeListener")
	}
	defer s.waitGroup.Wait()

	if s.opts.Once {
		defer s.listener.Close()
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			return err
		}
		return s.handle(ctx, conn).Err
	}

	var tempDelay time.Duration
	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if s.closing.Load() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Info().Msg("Listener is closing.")
				return nil
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else if tempDelay *= 2; tempDelay > time.Second {
				tempDelay = time.Second
			}
			logger.Warn().Err(err).Dur("retry_in", tempDelay).Msg("Failed to accept connection")
			select {
			case <-time.After(tempDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		tempDelay = 0

		s.waitGroup.Add(1)
		go func() {
			defer s.waitGroup.Done()
			s.handle(ctx, conn)
		}()
	}
}

// Start is InitializeListener followed by Serve.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.InitializeListener(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handle(ctx context.Context, conn *Connection) *types.Exchange {
	s.active.Add(1)
	defer s.active.Add(-1)

	// Cancelling ctx unblocks a pending receive or reply.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	l := log.With().Str("trace_id", conn.ID).Logger()
	ex := s.handler.Serve(l.WithContext(ctx), conn)
	s.total.Add(1)
	if ex.Err != nil {
		s.failed.Add(1)
	}
	return ex
}

// Metrics returns a snapshot of the server counters.
func (s *Server) Metrics() types.Metrics {
	return types.Metrics{
		ActiveConnections: s.active.Load(),
		TotalExchanges:    s.total.Load(),
		FailedExchanges:   s.failed.Load(),
		BytesReceived:     s.received.Load(),
		BytesSent:         s.sent.Load(),
	}
}

// Close stops accepting and waits for in-flight connections to finish.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		if s.listener != nil {
			s.listener.Close()
		}
		s.waitGroup.Wait()
		log.Info().Msg("Server has been shut down")
	})
}
