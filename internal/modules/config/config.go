package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	binanceKeyENV     = "BINANCE_API_KEY"
	binanceSecretENV  = "BINANCE_API_SECRET"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"binance"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Вселенная движка
	Symbols  []string `yaml:"symbols"`
	Interval string   `yaml:"interval"`

	// Скользящее окно баров на инстанс
	DataWindow int `yaml:"data_window"`

	// "цена рядом с пивотом" для алертов, доля цены; 0 — выключено
	ProximityThreshold float64 `yaml:"proximity_threshold"`

	// Имя yaml с профилями риска (ищется в configs/)
	ProfilesFile string `yaml:"profiles_file"`
	Profiles     []string `yaml:"profiles"`

	PricePollInterval time.Duration
	MonitorInterval   time.Duration
	HealthInterval    time.Duration
	BackfillLimit     int
	DataDir           string
}

func NewConfig() (*Config, error) {
	// .env удобен локально, в проде его просто нет
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := Config{
		Interval:           getenvDefault("INTERVAL", "15m"),
		DataWindow:         intFromEnv("DATA_WINDOW", 250),
		ProximityThreshold: floatFromEnv("PROXIMITY_THRESHOLD", 0.002),
		ProfilesFile:       getenvDefault("PROFILES_FILE", "profiles.yaml"),

		PricePollInterval: durationFromEnv("PRICE_POLL_INTERVAL", "2s"),
		MonitorInterval:   durationFromEnv("MONITOR_INTERVAL", "2s"),
		HealthInterval:    durationFromEnv("HEALTH_INTERVAL", "6h"),
		BackfillLimit:     intFromEnv("BACKFILL_LIMIT", 250),
		DataDir:           getenvDefault("DATA_DIR", "data"),
	}
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if chat := os.Getenv(chatTelegramENV); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", chatTelegramENV, err)
		}
		config.Telegram.ChatID = id
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	if k := os.Getenv(binanceKeyENV); k != "" {
		config.Binance.APIKey = k
	}
	if s := os.Getenv(binanceSecretENV); s != "" {
		config.Binance.APISecret = s
	}
	if syms := os.Getenv("SYMBOLS"); syms != "" {
		config.Symbols = splitSymbols(syms)
	}

	if len(config.Symbols) == 0 {
		config.Symbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"}
	}
	if len(config.Profiles) == 0 {
		config.Profiles = []string{"safe", "mid", "agresif"}
	}

	return &config, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
