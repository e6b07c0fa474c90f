package exchange

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"replyserver/internal/shared/types"
)

// Handler runs the single receive/reply exchange on a connection.
type Handler struct {
	payload  []byte
	maxLen   int
	out      io.Writer
	observer types.ExchangeObserver
}

// NewHandler builds a Handler replying with payload after reading at most maxLen bytes.
// Each received message is printed to out (stdout when nil) and every finished
// exchange is passed to observer when it is not nil.
func NewHandler(payload []byte, maxLen int, out io.Writer, observer types.ExchangeObserver) *Handler {
	if out == nil {
		out = os.Stdout
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	return &Handler{
		payload:  p,
		maxLen:   maxLen,
		out:      out,
		observer: observer,
	}
}

// Serve reads one message, prints it, sends the reply and closes c.
// A peer that sent nothing still gets the reply, since it may only have
// half-closed. Failing to deliver that reply is logged, not returned.
func (h *Handler) Serve(ctx context.Context, c *Connection) *types.Exchange {
	defer c.Close()

	l := zerolog.Ctx(ctx).With().Str("peer", c.peer()).Logger()
	ex := &types.Exchange{
		TraceID: c.ID,
		Peer:    c.peer(),
		Started: time.Now(),
	}
	defer func() {
		ex.Duration = time.Since(ex.Started)
		if ex.Err != nil {
			ex.Error = ex.Err.Error()
		}
		if h.observer != nil {
			h.observer.OnExchange(ex)
		}
	}()

	msg, err := c.Receive(h.maxLen)
	if err != nil {
		l.Error().Err(err).Msg("Failed to read from client")
		ex.Err = err
		return ex
	}
	ex.Received = msg
	ex.Message = string(msg)

	empty := len(msg) == 0
	if empty {
		l.Info().Msg("Client closed its side without sending data")
	}

	fmt.Fprintf(h.out, "Message from client: %s\n", msg)
	l.Info().Int("bytes", len(msg)).Msgf("Message from client: %s", msg)

	n, err := c.Reply(h.payload)
	ex.BytesSent = n
	if err != nil && empty {
		l.Warn().Err(err).Int("sent", n).Msg("Peer is gone, reply not delivered")
		ex.Error = err.Error()
		return ex
	}
	if err != nil {
		l.Error().Err(err).Int("sent", n).Msg("Failed to write to client")
		ex.Err = err
		return ex
	}
	l.Debug().Int("bytes", n).Msg("Reply sent")
	return ex
}
