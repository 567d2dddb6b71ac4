package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	App     AppConfig     `yaml:"app"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号 (0 はランダムポート)

	// タイムアウト設定
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // 読み込みタイムアウト（ボディ読み込みを含む）
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // 書き込みタイムアウト
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // グレースフルシャットダウンの猶予

	// AdoptListener が true の場合、LISTEN_FDS で渡されたソケットを引き継ぐ
	AdoptListener bool `yaml:"adopt_listener"`
}

// AppConfig はハンドラが参照するアプリケーション設定
type AppConfig struct {
	Name string `yaml:"name"` // 共有状態に保持されるアプリ名

	// /json エンドポイントのボディサイズ上限と超過時のステータス
	JSONLimit       int64 `yaml:"json_limit"`
	JSONLimitStatus int   `yaml:"json_limit_status"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig はPrometheusメトリクスの設定
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8088,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AdoptListener:   true,
		},
		App: AppConfig{
			Name:            "Actix-web",
			JSONLimit:       4096,
			JSONLimitStatus: 409,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load は設定を読み込む
// CONFIG_FILE が指定されていればYAMLファイルを読み込み、その後環境変数で上書きする
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile は指定されたYAMLファイルから設定を読み込む
// path が空の場合はデフォルト値と環境変数のみを使う
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗 (%s): %w", path, err)
		}
	}

	cfg.applyEnv()

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする
func (c *Config) applyEnv() {
	c.Server.Host = getEnvOrDefault("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Server.Port = getEnvAsIntOrDefault("SERVER_PORT", c.Server.Port)
	c.App.Name = getEnvOrDefault("APP_NAME", c.App.Name)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	var errs []error

	// サーバー設定の検証
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("無効なポート番号: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("タイムアウトに負の値は指定できません"))
	}

	// アプリ設定の検証
	if strings.TrimSpace(c.App.Name) == "" {
		errs = append(errs, errors.New("アプリ名が設定されていません"))
	}
	if c.App.JSONLimit < 0 {
		errs = append(errs, fmt.Errorf("無効なボディサイズ上限: %d", c.App.JSONLimit))
	}
	if s := c.App.JSONLimitStatus; s != 0 && (s < 400 || s > 499) {
		errs = append(errs, fmt.Errorf("ボディサイズ超過時のステータスは4xxである必要があります: %d", s))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
