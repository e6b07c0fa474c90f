package web

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"replyserver/internal/shared/logger"
)

// loggingListener logs every accepted monitor connection at debug level.
type loggingListener struct {
	net.Listener
}

func (l loggingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		logger.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("[WebServer] Connection accepted")
	}
	return conn, err
}

// NewMux registers the monitor routes.
func NewMux(provider StatusProvider, hub *Hub) *http.ServeMux {
	handler := NewHandler(provider)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", handler.HandleStatus)
	mux.HandleFunc("/api/exchanges", handler.HandleRecentExchanges)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	})
	return mux
}

// StartServer starts the monitor on port in the background. It returns nil
// when port is 0 or negative, which disables the monitor.
func StartServer(wg *sync.WaitGroup, port int, provider StatusProvider, hub *Hub) (*http.Server, error) {
	if port <= 0 {
		logger.Debug().Msg("[WebServer] Monitor is disabled (web_port is 0 or not set).")
		return nil, nil
	}

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monitor failed to listen on %s: %w", addr, err)
	}
	logger.Info().Msgf("Monitor is listening on http://%s", listener.Addr())

	srv := &http.Server{Handler: NewMux(provider, hub)}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(loggingListener{Listener: listener}); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Monitor server error")
		}
		logger.Debug().Msg("Monitor server stopped.")
	}()
	return srv, nil
}
