// Package logger 是全局日志出口。run 模式写 stdout（可叠加日志文件），
// serve 模式下 worker 与 HTTP 处理器共用同一个实例，因此替换输出要加锁。
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

var (
	minLevel slog.LevelVar

	mu      sync.RWMutex
	current *slog.Logger
)

func init() {
	minLevel.Set(slog.LevelInfo)
	current = build(os.Stdout)
}

func build(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &minLevel}))
}

// SetOutput 替换日志输出目标，传入 MultiWriter 可同时落文件。
func SetOutput(w io.Writer) {
	mu.Lock()
	current = build(w)
	mu.Unlock()
}

// SetLevel 按配置项字符串调整级别，无法识别的值回到 info。
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		minLevel.Set(slog.LevelDebug)
	case "info":
		minLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		minLevel.Set(slog.LevelWarn)
	case "error":
		minLevel.Set(slog.LevelError)
	default:
		minLevel.Set(slog.LevelInfo)
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debugf(format string, v ...any) {
	get().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	get().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	get().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	get().Error(fmt.Sprintf(format, v...))
}

// InfoBlock 把多行文本（汇总表格）逐行打出，每行都带日志前缀，
// 避免表格在文件日志里和其他条目搅在一起。
func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		Infof("%s", line)
	}
}
