package exchange

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replyserver/internal/shared/types"
)

var defaultReply = types.DefaultConfig().ReplyConf.Payload()

func startListener(t *testing.T, opts ListenOptions) *Listener {
	t.Helper()
	if opts.Bind == "" {
		opts.Bind = "127.0.0.1"
	}
	ln, err := Listen(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln
}

func dial(t *testing.T, ln *Listener) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(ln.Info().Port)), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func accept(t *testing.T, ln *Listener) *Connection {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := ln.Accept(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestListen_ClientCanConnect(t *testing.T) {
	ln := startListener(t, ListenOptions{Backlog: 5})
	assert.NotZero(t, ln.Info().Port)
	assert.Equal(t, 5, ln.Info().Backlog)

	client := dial(t, ln)
	c := accept(t, ln)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, client.LocalAddr().String(), c.Peer.String())
}

func TestListen_PortInUse(t *testing.T) {
	first := startListener(t, ListenOptions{})

	_, err := Listen(context.Background(), ListenOptions{Bind: "127.0.0.1", Port: first.Info().Port})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBind)
	assert.NotErrorIs(t, err, ErrAccept)

	var exErr *Error
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, KindBind, exErr.Kind)
}

func TestListen_InvalidBindAddress(t *testing.T) {
	for _, bind := range []string{"not-an-ip", "::1"} {
		_, err := Listen(context.Background(), ListenOptions{Bind: bind})
		assert.ErrorIs(t, err, ErrBind, bind)
	}
}

func TestReceive_RoundTrip(t *testing.T) {
	for _, size := range []int{1, 5, 100, 255} {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			ln := startListener(t, ListenOptions{})
			client := dial(t, ln)
			c := accept(t, ln)

			payload := make([]byte, size)
			_, err := rand.Read(payload)
			require.NoError(t, err)
			_, err = client.Write(payload)
			require.NoError(t, err)

			got, err := c.Receive(255)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestReceive_TruncatesLongPayload(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	client := dial(t, ln)
	c := accept(t, ln)

	payload := bytes.Repeat([]byte("0123456789"), 30)
	_, err := client.Write(payload)
	require.NoError(t, err)

	got, err := c.Receive(1024)
	require.NoError(t, err)
	assert.Len(t, got, 255)
	assert.Equal(t, payload[:255], got)
}

func TestReceive_PeerClosedWithoutData(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	client := dial(t, ln)
	c := accept(t, ln)
	require.NoError(t, client.Close())

	got, err := c.Receive(255)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReceive_TimeoutIsReadError(t *testing.T) {
	ln := startListener(t, ListenOptions{IOTimeout: 50 * time.Millisecond})
	dial(t, ln)
	c := accept(t, ln)

	_, err := c.Receive(255)
	assert.ErrorIs(t, err, ErrRead)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestReceive_AfterCloseIsReadError(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	dial(t, ln)
	c := accept(t, ln)
	require.NoError(t, c.Close())

	_, err := c.Receive(255)
	assert.ErrorIs(t, err, ErrRead)
}

func TestReply_SendsFullPayload(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	client := dial(t, ln)
	c := accept(t, ln)

	n, err := c.Reply(defaultReply)
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	require.NoError(t, c.Close())

	got, err := io.ReadAll(client)
	require.NoError(t, err)
	assert.Equal(t, "I got your message", string(got))
}

func TestReply_AfterCloseIsWriteError(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	dial(t, ln)
	c := accept(t, ln)
	require.NoError(t, c.Close())

	n, err := c.Reply(defaultReply)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrWrite)
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	dial(t, ln)
	c := accept(t, ln)

	first := c.Close()
	assert.NoError(t, first)
	assert.Equal(t, first, c.Close())
}

func TestListener_CloseUnblocksAccept(t *testing.T) {
	ln := startListener(t, ListenOptions{})

	errCh := make(chan error, 1)
	go func() {
		_, err := ln.Accept(context.Background())
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ln.Close())
	require.NoError(t, ln.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrAccept)
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
}

func TestListener_ContextCancelUnblocksAccept(t *testing.T) {
	for _, limit := range []int{0, 2} {
		t.Run("limit="+strconv.Itoa(limit), func(t *testing.T) {
			ln := startListener(t, ListenOptions{MaxConnections: limit})
			ctx, cancel := context.WithCancel(context.Background())

			errCh := make(chan error, 1)
			go func() {
				_, err := ln.Accept(ctx)
				errCh <- err
			}()
			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-errCh:
				assert.ErrorIs(t, err, ErrAccept)
				assert.ErrorIs(t, err, context.Canceled)
			case <-time.After(2 * time.Second):
				t.Fatal("Accept did not return after cancel")
			}
		})
	}
}

func TestListener_AcceptAfterCancelledAccept(t *testing.T) {
	ln := startListener(t, ListenOptions{})
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := ln.Accept(ctx)
		cancel()
		require.ErrorIs(t, err, ErrAccept)
	}

	// The listener is still usable with a fresh context: no stale deadline is left behind.
	dial(t, ln)
	accept(t, ln)
}

func TestError_Message(t *testing.T) {
	err := newError(KindWrite, "1.2.3.4:5", io.ErrClosedPipe)
	assert.Equal(t, "[write] 1.2.3.4:5 > io: read/write on closed pipe", err.Error())
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.Equal(t, "unknown", Kind(0).String())
}

// syncBuffer is a bytes.Buffer that can be written from several goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

type recordingObserver struct {
	mu        sync.Mutex
	exchanges []*types.Exchange
}

func (o *recordingObserver) OnExchange(ex *types.Exchange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exchanges = append(o.exchanges, ex)
}

func (o *recordingObserver) all() []*types.Exchange {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*types.Exchange(nil), o.exchanges...)
}
