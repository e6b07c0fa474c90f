package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"replyserver/internal/app"
	"replyserver/internal/shared/config"
	"replyserver/internal/shared/logger"
	"replyserver/internal/shared/types"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("replyserver", flag.ContinueOnError)
	configDir := fs.String("configdir", "configs", "Path to config directory")
	port := fs.Int("port", -1, "Listen port (overrides the config file)")
	mode := fs.String("mode", "", "Run mode: once or serve (overrides the config file)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	iniPath := filepath.Join(*configDir, "replyserver.ini")

	// 1. 加载 .ini 行为配置
	cfg, err := loadConfig(iniPath, *port, *mode)
	if err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		return 1
	}

	// 2. 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 创建并运行服务器
	if err := app.New(cfg, os.Stdout).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return 1
	}
	return 0
}

func loadConfig(iniPath string, port int, mode string) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		return nil, err
	}
	if port >= 0 {
		cfg.ListenerConf.Port = port
	}
	if mode != "" {
		cfg.CommonConf.Mode = mode
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
