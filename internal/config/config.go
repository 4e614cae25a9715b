package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	APIKey           string
	HTTPPort         int

	CoinGeckoPollSecs int

	TradingEnabled   bool
	TradeSymbol      string
	TradeInterval    string
	TradeTickSecs    int
	InitialCapital   float64
	ActiveStrategies []string
	ATHSeed          float64

	BacktestMaxConcurrent int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, write endpoints are unauthenticated")
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.CoinGeckoPollSecs = 60
	if v := os.Getenv("COINGECKO_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CoinGeckoPollSecs = n
		}
	}

	cfg.TradingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRADING_ENABLED")), "true")

	cfg.TradeSymbol = strings.ToUpper(strings.TrimSpace(os.Getenv("TRADE_SYMBOL")))
	if cfg.TradeSymbol == "" {
		cfg.TradeSymbol = "BTC"
	}

	cfg.TradeInterval = strings.TrimSpace(os.Getenv("TRADE_INTERVAL"))
	if cfg.TradeInterval == "" {
		cfg.TradeInterval = "1d"
	}

	cfg.TradeTickSecs = 3600
	if v := strings.TrimSpace(os.Getenv("TRADE_TICK_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TradeTickSecs = n
		}
	}

	cfg.InitialCapital = 10000
	if v := strings.TrimSpace(os.Getenv("INITIAL_CAPITAL")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.InitialCapital = n
		}
	}

	cfg.ActiveStrategies = []string{"dca", "balanced"}
	if v := strings.TrimSpace(os.Getenv("ACTIVE_STRATEGIES")); v != "" {
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.ActiveStrategies = ids
		}
	}

	cfg.ATHSeed = 0
	if v := strings.TrimSpace(os.Getenv("ATH_SEED")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.ATHSeed = n
		}
	}

	cfg.BacktestMaxConcurrent = 4
	if v := strings.TrimSpace(os.Getenv("BACKTEST_MAX_CONCURRENT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BacktestMaxConcurrent = n
		}
	}

	return cfg
}
