package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"replyserver/internal/shared/types"
)

// LoadIni 加载 replyserver.ini 行为配置文件。
// A missing file is not an error: cfg keeps whatever defaults it already holds.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			overrideFromEnvInt(&cfg.ListenerConf.Port, "REPLY_PORT")
			return Validate(cfg)
		}
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	overrideFromEnvInt(&cfg.ListenerConf.Port, "REPLY_PORT")
	return Validate(cfg)
}

// Load returns the defaults overlaid with fileName.
func Load(fileName string) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, fileName); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the listener and handler depend on.
func Validate(cfg *types.Config) error {
	cfg.CommonConf.Mode = strings.ToLower(strings.TrimSpace(cfg.CommonConf.Mode))
	switch cfg.CommonConf.Mode {
	case types.ModeOnce, types.ModeServe:
	case "":
		cfg.CommonConf.Mode = types.ModeOnce
	default:
		return fmt.Errorf("invalid mode %q: want %q or %q", cfg.CommonConf.Mode, types.ModeOnce, types.ModeServe)
	}
	if cfg.ListenerConf.Port < 0 || cfg.ListenerConf.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.ListenerConf.Port)
	}
	if cfg.ListenerConf.Backlog <= 0 {
		return fmt.Errorf("invalid backlog %d", cfg.ListenerConf.Backlog)
	}
	if cfg.CommonConf.BufferSize <= 0 {
		return fmt.Errorf("invalid bufferSize %d", cfg.CommonConf.BufferSize)
	}
	if cfg.ReplyConf.Length < 0 {
		return fmt.Errorf("invalid reply length %d", cfg.ReplyConf.Length)
	}
	return nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
