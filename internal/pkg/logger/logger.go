package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewDefault 根据日志级别创建默认的 slog.Logger。
//
// level 支持 debug / info / warn / error，无效值按 info 处理。
func NewDefault(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv})
	return slog.New(handler)
}
