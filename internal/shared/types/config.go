package types

import "time"

// Server run modes.
const (
	ModeOnce  = "once"
	ModeServe = "serve"
)

// CommonConf 包含共有的配置
type CommonConf struct {
	Mode           string `ini:"mode"`
	MaxConnections int    `ini:"maxConnections"`
	BufferSize     int    `ini:"bufferSize"`
	IOTimeout      int    `ini:"ioTimeout"` // seconds, 0 disables deadlines
}

// ListenerConf describes the listening socket.
type ListenerConf struct {
	Bind    string `ini:"bind"`
	Port    int    `ini:"port"`
	Backlog int    `ini:"backlog"`
}

// ReplyConf is the fixed payload written back to every client.
// Length caps how many bytes of Message are transmitted; 0 sends all of it.
type ReplyConf struct {
	Message string `ini:"message"`
	Length  int    `ini:"length"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level  string `ini:"level"`
	Format string `ini:"format"` // "console" (default) or "json"
}

// MonitorConf 包含监控页面的配置
type MonitorConf struct {
	WebPort int `ini:"web_port"`
}

// Config 是 replyserver 的统一配置结构体
type Config struct {
	CommonConf   `ini:"common"`
	ListenerConf `ini:"listener"`
	ReplyConf    `ini:"reply"`
	LogConf      `ini:"log"`
	MonitorConf  `ini:"monitor"`
}

// DefaultConfig returns the configuration used when no ini file is present.
// The values reproduce the classic single-shot server: port 8000, backlog 5,
// a 255 byte read and the 18 byte reply.
func DefaultConfig() *Config {
	return &Config{
		CommonConf: CommonConf{
			Mode:       ModeOnce,
			BufferSize: 255,
		},
		ListenerConf: ListenerConf{
			Bind:    "0.0.0.0",
			Port:    8000,
			Backlog: 5,
		},
		ReplyConf: ReplyConf{
			Message: "I got your message",
			Length:  18,
		},
		LogConf: LogConf{
			Level:  "info",
			Format: "console",
		},
	}
}

// Payload returns the bytes that go on the wire for a reply.
func (r ReplyConf) Payload() []byte {
	msg := []byte(r.Message)
	if r.Length > 0 && r.Length < len(msg) {
		return msg[:r.Length]
	}
	return msg
}

// Timeout converts IOTimeout to a duration.
func (c CommonConf) Timeout() time.Duration {
	if c.IOTimeout <= 0 {
		return 0
	}
	return time.Duration(c.IOTimeout) * time.Second
}
