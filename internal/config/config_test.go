package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("COINGECKO_POLL_SECS", "")
	t.Setenv("ACTIVE_STRATEGIES", "")
	t.Setenv("INITIAL_CAPITAL", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.CoinGeckoPollSecs != 60 {
		t.Fatalf("expected default poll secs 60, got %d", cfg.CoinGeckoPollSecs)
	}
	if cfg.TradeSymbol != "BTC" || cfg.TradeInterval != "1d" {
		t.Fatalf("unexpected trade defaults: %s %s", cfg.TradeSymbol, cfg.TradeInterval)
	}
	if cfg.InitialCapital != 10000 {
		t.Fatalf("expected default capital 10000, got %v", cfg.InitialCapital)
	}
	if len(cfg.ActiveStrategies) != 2 || cfg.ActiveStrategies[0] != "dca" {
		t.Fatalf("unexpected default strategies: %v", cfg.ActiveStrategies)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("COINGECKO_POLL_SECS", "120")
	t.Setenv("TRADING_ENABLED", "true")
	t.Setenv("TRADE_SYMBOL", "eth")
	t.Setenv("ACTIVE_STRATEGIES", "dip-buyer, aggressive")
	t.Setenv("ATH_SEED", "69000")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CoinGeckoPollSecs != 120 {
		t.Fatalf("expected poll secs 120, got %d", cfg.CoinGeckoPollSecs)
	}
	if !cfg.TradingEnabled || cfg.TradeSymbol != "ETH" {
		t.Fatalf("unexpected trading config: %+v", cfg)
	}
	if len(cfg.ActiveStrategies) != 2 || cfg.ActiveStrategies[1] != "aggressive" {
		t.Fatalf("unexpected strategies: %v", cfg.ActiveStrategies)
	}
	if cfg.ATHSeed != 69000 {
		t.Fatalf("expected ath seed 69000, got %v", cfg.ATHSeed)
	}

	t.Setenv("COINGECKO_POLL_SECS", "bad")
	cfg = Load()
	if cfg.CoinGeckoPollSecs != 60 {
		t.Fatalf("invalid poll secs should fall back to default, got %d", cfg.CoinGeckoPollSecs)
	}
}
