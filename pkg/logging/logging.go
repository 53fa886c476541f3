// Package logging 基于 zerolog 构造日志器。
//
// 库代码不持有全局日志器：需要日志的节点通过构造参数拿到 *zerolog.Logger，
// 未设置时使用 Nop()，不产生任何输出。
//
//	logger := logging.New(logging.Config{Level: "debug", Format: "console"})
//	node := &rerank.CascadeNode{Logger: &logger}
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level: trace, debug, info, warn, error, disabled（默认 info）
	Level string `koanf:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`

	// Format: json 或 console（默认 json）
	Format string `koanf:"format" yaml:"format" validate:"omitempty,oneof=json console"`

	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-" yaml:"-"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

// New 按配置创建日志器。
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel 把字符串转换为 zerolog.Level，无法识别时返回 InfoLevel。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var nop = zerolog.Nop()

// Nop 返回不输出任何内容的日志器。
func Nop() *zerolog.Logger {
	return &nop
}

// OrNop 在 l 为 nil 时返回 Nop()。
func OrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
