package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"replyserver/internal/client"
	"replyserver/internal/shared/logger"
	"replyserver/internal/shared/types"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "Server address")
	msg := flag.String("msg", "hello", "Message to send")
	timeout := flag.Duration("timeout", 5*time.Second, "Overall timeout")
	socks5 := flag.String("socks5", "", "Optional SOCKS5 proxy host:port")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	if err := logger.Init(types.LogConf{Level: *level}); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	reply, err := client.Exchange(context.Background(), client.Options{
		Addr:    *addr,
		Timeout: *timeout,
		Socks5:  *socks5,
	}, []byte(*msg))
	if err != nil {
		logger.Error().Err(err).Str("addr", *addr).Msg("Exchange failed")
		os.Exit(1)
	}
	fmt.Printf("Received from server: %s\n", reply)
}
