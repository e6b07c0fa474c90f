package app

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"replyserver/internal/exchange"
	"replyserver/internal/service/web"
	"replyserver/internal/shared/globalstate"
	"replyserver/internal/shared/logger"
	"replyserver/internal/shared/types"
)

const recentExchangesLimit = 50

// AppServer is the application's main struct.
type AppServer struct {
	cfg *types.Config

	server    *exchange.Server
	hub       *web.Hub
	webServer *http.Server

	recentLock sync.Mutex
	recent     []*types.Exchange

	statsInterval time.Duration
	stopCh        chan struct{}
	waitGroup     sync.WaitGroup
	stopOnce      sync.Once
}

// AppServer must implement the interfaces it is handed to.
var _ types.ExchangeObserver = (*AppServer)(nil)
var _ web.StatusProvider = (*AppServer)(nil)

// New creates an AppServer. Received messages are printed to out.
func New(cfg *types.Config, out io.Writer) *AppServer {
	s := &AppServer{
		cfg:           cfg,
		hub:           web.NewHub(),
		statsInterval: 2 * time.Second,
		stopCh:        make(chan struct{}),
	}
	s.server = exchange.NewServer(exchange.Options{
		Listen: exchange.ListenOptions{
			Bind:           cfg.ListenerConf.Bind,
			Port:           cfg.ListenerConf.Port,
			Backlog:        cfg.ListenerConf.Backlog,
			MaxConnections: cfg.CommonConf.MaxConnections,
			BufferSize:     cfg.CommonConf.BufferSize,
			IOTimeout:      cfg.CommonConf.Timeout(),
		},
		Once:     cfg.CommonConf.Mode == types.ModeOnce,
		Payload:  cfg.ReplyConf.Payload(),
		MaxLen:   cfg.CommonConf.BufferSize,
		Out:      out,
		Observer: s,
	})
	return s
}

// Run is the server's entry point. It binds, serves until ctx is done (or,
// in once mode, until the first exchange finished) and shuts everything down.
// The returned error is nil only for a clean run.
func (s *AppServer) Run(ctx context.Context) error {
	return s.run(ctx, nil)
}

// run reports the bound port on ready once the listener is up.
func (s *AppServer) run(ctx context.Context, ready chan<- int) error {
	defer s.Stop()

	logger.Info().Str("mode", s.cfg.CommonConf.Mode).Msg("Starting replyserver...")
	globalstate.GlobalStatus.Set(globalstate.StatusInitializing)

	port, err := s.server.InitializeListener(ctx)
	if err != nil {
		globalstate.GlobalStatus.Set(globalstate.StatusFailed)
		return err
	}
	globalstate.GlobalStatus.Set(globalstate.StatusListening)

	go s.hub.Run()
	webServer, err := web.StartServer(&s.waitGroup, s.cfg.MonitorConf.WebPort, s, s.hub)
	if err != nil {
		// The monitor is optional; the exchange service keeps running without it.
		logger.Warn().Err(err).Msg("Monitor failed to start")
	}
	s.webServer = webServer

	s.waitGroup.Add(1)
	go s.statsLoop()

	if ready != nil {
		ready <- port
	}

	err = s.server.Serve(ctx)
	if err != nil {
		globalstate.GlobalStatus.Set(globalstate.StatusFailed)
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		if globalstate.GlobalStatus.Get() != globalstate.StatusFailed {
			globalstate.GlobalStatus.Set(globalstate.StatusStopping)
		}
		close(s.stopCh)
		s.server.Close()

		if s.webServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.webServer.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Msg("Monitor shutdown failed")
			}
			cancel()
		}
		s.hub.Stop()
		s.waitGroup.Wait()

		if globalstate.GlobalStatus.Get() != globalstate.StatusFailed {
			globalstate.GlobalStatus.Set(globalstate.StatusStopped)
		}
	})
}

// GetListenerInfo implements web.StatusProvider.
func (s *AppServer) GetListenerInfo() *types.ListenerInfo {
	return s.server.ListenerInfo()
}

// GetMetrics implements web.StatusProvider.
func (s *AppServer) GetMetrics() types.Metrics {
	return s.server.Metrics()
}
