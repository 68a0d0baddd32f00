package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	venueURLENV       = "VENUE_URL"
	venuePasswordENV  = "VENUE_PASSWORD"
	tpThresholdENV    = "TP_THRESHOLD"
	slThresholdENV    = "SL_THRESHOLD"

	defaultConfigFile = "values_local.yaml"
)

// SymbolMapping ключ из текста -> символ терминала.
type SymbolMapping struct {
	Key    string
	Symbol string
}

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
		// куда слать отчёты по ордерам, 0: не слать
		ServiceChatID int64 `yaml:"service_chat_id"`
	} `yaml:"telegram"`

	// разрешённые каналы
	Channels []int64 `yaml:"channels"`
	// порядок важен: побеждает первый найденный ключ
	RawSymbolMap yaml.MapSlice   `yaml:"symbol_map"`
	SymbolMap    []SymbolMapping `yaml:"-"`

	Keywords struct {
		Buy  []string `yaml:"buy"`
		Sell []string `yaml:"sell"`
		TP   []string `yaml:"tp"`
		SL   []string `yaml:"sl"`
	} `yaml:"keywords"`

	// относительная дистанция от входа, 0.01 => 1%
	Thresholds struct {
		TP float64 `yaml:"tp"`
		SL float64 `yaml:"sl"`
	} `yaml:"thresholds"`

	Trading struct {
		MinLot        float64       `yaml:"min_lot"`
		RiskAmount    float64       `yaml:"risk_amount"`
		PendingExpiry time.Duration `yaml:"pending_expiry"`
	} `yaml:"trading"`

	Venue struct {
		URL            string        `yaml:"url"`
		TerminalPath   string        `yaml:"terminal_path"`
		Login          int64         `yaml:"login"`
		Password       string        `yaml:"password"`
		Server         string        `yaml:"server"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"venue"`

	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(filepath.Join("configs", configFileName))
}

// Load читает yaml, накладывает env и валидирует.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	config := defaults()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", path)
	}

	config.applyEnv()

	if err := config.buildSymbolMap(); err != nil {
		return nil, err
	}
	config.normalizeKeywords()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	c := &Config{}
	c.Keywords.Buy = []string{"BUY", "compro"}
	c.Keywords.Sell = []string{"SELL", "vendo"}
	c.Keywords.TP = []string{"TP"}
	c.Keywords.SL = []string{"SL"}

	c.Thresholds.TP = 0.01
	c.Thresholds.SL = 0.01

	c.Trading.MinLot = 0.01
	c.Trading.RiskAmount = 100
	c.Trading.PendingExpiry = 15 * time.Minute

	c.Venue.RequestTimeout = 10 * time.Second

	c.Service.Host = "0.0.0.0"
	c.Service.AdminPort = 8080

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831

	c.Log.Level = "info"
	return c
}

func (c *Config) applyEnv() {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if u := os.Getenv(venueURLENV); u != "" {
		c.Venue.URL = u
	}
	if p := os.Getenv(venuePasswordENV); p != "" {
		c.Venue.Password = p
	}
	c.Thresholds.TP = floatFromEnv(tpThresholdENV, c.Thresholds.TP)
	c.Thresholds.SL = floatFromEnv(slThresholdENV, c.Thresholds.SL)
}

func (c *Config) buildSymbolMap() error {
	c.SymbolMap = make([]SymbolMapping, 0, len(c.RawSymbolMap))
	for _, item := range c.RawSymbolMap {
		key := strings.TrimSpace(fmt.Sprint(item.Key))
		symbol, ok := item.Value.(string)
		if key == "" || !ok || strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("symbol_map: bad entry %v: %v", item.Key, item.Value)
		}
		c.SymbolMap = append(c.SymbolMap, SymbolMapping{Key: key, Symbol: strings.TrimSpace(symbol)})
	}
	return nil
}

// сравнение идёт по верхнему регистру, приводим сразу
func (c *Config) normalizeKeywords() {
	upper := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, kw := range in {
			if kw = strings.ToUpper(strings.TrimSpace(kw)); kw != "" {
				out = append(out, kw)
			}
		}
		return out
	}
	c.Keywords.Buy = upper(c.Keywords.Buy)
	c.Keywords.Sell = upper(c.Keywords.Sell)
	c.Keywords.TP = upper(c.Keywords.TP)
	c.Keywords.SL = upper(c.Keywords.SL)
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or env %s)", tokenTelegramENV)
	}
	if c.Venue.URL == "" {
		return fmt.Errorf("venue.url is required (or env %s)", venueURLENV)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("channels: at least one channel id is required")
	}
	if c.Thresholds.TP <= 0 || c.Thresholds.TP >= 1 {
		return fmt.Errorf("thresholds.tp must be in (0,1), got %v", c.Thresholds.TP)
	}
	if c.Thresholds.SL <= 0 || c.Thresholds.SL >= 1 {
		return fmt.Errorf("thresholds.sl must be in (0,1), got %v", c.Thresholds.SL)
	}
	if len(c.Keywords.Buy) == 0 || len(c.Keywords.Sell) == 0 {
		return fmt.Errorf("keywords.buy and keywords.sell must not be empty")
	}
	if len(c.Keywords.TP) == 0 || len(c.Keywords.SL) == 0 {
		return fmt.Errorf("keywords.tp and keywords.sl must not be empty")
	}
	return nil
}

// AdminAddr адрес health/metrics сервера.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
