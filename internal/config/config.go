package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_LOG_LEVEL      = "info"
	DEFAULT_BATCH_SIZE     = 5
	DEFAULT_FLUSH_INTERVAL = 5 * time.Second
)

// モジュール設定の構造体
type Config struct {
	Enabled bool                   `json:"enabled" yaml:"enabled"`
	Options map[string]interface{} `json:"options" yaml:"options"`
}

// ログ設定の構造体
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// メトリクス設定の構造体
type MetricsConfig struct {
	Address string `json:"address" yaml:"address"`
}

// イベント送信設定の構造体
type TransmissionConfig struct {
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	FlushInterval string `json:"flush_interval" yaml:"flush_interval"`
}

// 設定ファイルの構造体
type Configs struct {
	Modules      map[string]Config  `json:"modules" yaml:"modules"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
	Transmission TransmissionConfig `json:"transmission" yaml:"transmission"`
}

// 指定されたパスから設定を読み込み
// 拡張子が .yaml / .yml の場合はYAML、それ以外はJSONとして扱う
func LoadConfig(path string) (*Configs, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var configs Configs
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(file, &configs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(file, &configs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	configs.Defaults()

	if _, err := configs.Transmission.Interval(); err != nil {
		return nil, err
	}

	return &configs, nil
}

// 未設定の項目に既定値を設定
func (c *Configs) Defaults() {
	if c.Modules == nil {
		c.Modules = make(map[string]Config)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DEFAULT_LOG_LEVEL
	}
	if c.Transmission.BatchSize <= 0 {
		c.Transmission.BatchSize = DEFAULT_BATCH_SIZE
	}
}

// 送信間隔を取得
func (t TransmissionConfig) Interval() (time.Duration, error) {
	if t.FlushInterval == "" {
		return DEFAULT_FLUSH_INTERVAL, nil
	}

	d, err := time.ParseDuration(t.FlushInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid flush_interval %q: %w", t.FlushInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("flush_interval must be positive, got %s", d)
	}

	return d, nil
}

// 文字列のオプションを取得
func (c Config) OptionString(name, def string) string {
	if v, ok := c.Options[name].(string); ok {
		return v
	}
	return def
}

// 真偽値のオプションを取得
func (c Config) OptionBool(name string, def bool) bool {
	if v, ok := c.Options[name].(bool); ok {
		return v
	}
	return def
}

// 整数のオプションを取得（JSONはfloat64、YAMLはintで読み込まれる）
func (c Config) OptionInt(name string, def int) int {
	switch v := c.Options[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// 文字列リストのオプションを取得
func (c Config) OptionStrings(name string, def []string) []string {
	switch v := c.Options[name].(type) {
	case []string:
		return v
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	case string:
		return []string{v}
	}
	return def
}
