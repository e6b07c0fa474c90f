package exchange

import (
	"errors"
	"strings"
)

// Kind classifies a failure of the listen/accept/receive/reply steps.
type Kind int

const (
	KindBind Kind = iota + 1
	KindAccept
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindBind:
		return "bind"
	case KindAccept:
		return "accept"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	}
	return "unknown"
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrBind   = errors.New("bind error")
	ErrAccept = errors.New("accept error")
	ErrRead   = errors.New("read error")
	ErrWrite  = errors.New("write error")
)

// Error is returned by every fallible operation of this package.
type Error struct {
	Kind Kind
	Addr string
	Err  error
}

func (e *Error) Error() string {
	builder := strings.Builder{}
	builder.WriteByte('[')
	builder.WriteString(e.Kind.String())
	builder.WriteString("] ")
	if e.Addr != "" {
		builder.WriteString(e.Addr)
	}
	if e.Err != nil {
		builder.WriteString(" > ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBind:
		return e.Kind == KindBind
	case ErrAccept:
		return e.Kind == KindAccept
	case ErrRead:
		return e.Kind == KindRead
	case ErrWrite:
		return e.Kind == KindWrite
	}
	return false
}

func newError(kind Kind, addr string, err error) *Error {
	return &Error{Kind: kind, Addr: addr, Err: err}
}
