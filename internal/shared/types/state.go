package types

import "time"

// ListenerInfo holds the runtime listening info of the server.
type ListenerInfo struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Backlog int    `json:"backlog"`
}

// Metrics holds the runtime counters of the server.
type Metrics struct {
	ActiveConnections int64  `json:"activeConnections"`
	TotalExchanges    uint64 `json:"totalExchanges"`
	FailedExchanges   uint64 `json:"failedExchanges"`
	BytesReceived     uint64 `json:"bytesReceived"`
	BytesSent         uint64 `json:"bytesSent"`
}

// Exchange records one served connection.
type Exchange struct {
	TraceID   string        `json:"trace_id"`
	Peer      string        `json:"peer"`
	Received  []byte        `json:"-"`
	Message   string        `json:"message"`
	BytesSent int           `json:"bytes_sent"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
}

// ExchangeObserver 接收每一次交换完成的通知
type ExchangeObserver interface {
	OnExchange(ex *Exchange)
}
