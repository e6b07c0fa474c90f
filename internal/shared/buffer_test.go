package shared

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecvBuffer_ClearsStaleBytes(t *testing.T) {
	b := NewRecvBuffer(16)

	n, err := b.ReadOnce(strings.NewReader("abcdefgh"), 0)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	n, err = b.ReadOnce(strings.NewReader("xy"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("xy"), b.Bytes())
	// Nothing of the first read survives behind the short second read.
	assert.Equal(t, make([]byte, 14), b.b[2:])
}

func TestRecvBuffer_LimitIsCappedAtCapacity(t *testing.T) {
	b := NewRecvBuffer(4)
	n, err := b.ReadOnce(strings.NewReader("123456"), 100)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("1234"), b.Bytes())

	n, err = b.ReadOnce(strings.NewReader("123456"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("12"), b.Bytes())
}

func TestRecvBuffer_EOF(t *testing.T) {
	b := NewRecvBuffer(0)
	assert.Equal(t, DefaultRecvSize, b.Cap())

	n, err := b.ReadOnce(bytes.NewReader(nil), 0)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, b.Bytes())
	assert.Equal(t, 0, b.Len())
}

func TestRecvBuffer_BytesIsACopy(t *testing.T) {
	b := NewRecvBuffer(8)
	_, err := b.ReadOnce(strings.NewReader("hello"), 0)
	require.NoError(t, err)

	got := b.Bytes()
	b.Reset()
	assert.Equal(t, []byte("hello"), got)
}
