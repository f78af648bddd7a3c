package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/rs/zerolog"
)

// New 建立 root logger，level 透過 zerolog global level 控制，之後可用 ApplyLevel 動態調整
//
// 參數:
//   - cf: 使用 LOG_FORMAT、LOG_LEVEL、MODULE_NAME
//   - w: 輸出目標，nil 為 stdout
func New(cf *config.Config, w io.Writer) *zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(cf.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ApplyLevel(cf.LogLevel)
	l := zerolog.New(w).With().
		Timestamp().
		Str("module", cf.ModuleName).
		Logger()
	return &l
}

// ApplyLevel 無法解析時使用 info
func ApplyLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}
