package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mniyk/uevent-monitoring-tools/internal/config"
)

// logr の V レベルと zap のレベルの対応
// V(1) は debug、V(2) は trace として扱う
var levels = map[string]zapcore.Level{
	"error": zapcore.ErrorLevel,
	"warn":  zapcore.WarnLevel,
	"info":  zapcore.InfoLevel,
	"debug": zapcore.DebugLevel,
	"trace": zapcore.Level(-2),
}

// レベル名をzapのレベルに変換
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}

	level, ok := levels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}

	return level, nil
}

// 設定から標準エラー出力向けのロガーを作成
func New(cfg config.LoggingConfig) (logr.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// 設定から指定された出力先のロガーを作成
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (logr.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return logr.Discard(), err
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))

	return zapr.NewLogger(zap.New(core)), nil
}
