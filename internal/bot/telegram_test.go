package bot

import (
	"testing"

	"satstacker/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if b := StartTelegramBot(nil, nil); b != nil {
		t.Fatal("expected nil bot without token")
	}
}

func TestNotifyTradeNilBot(t *testing.T) {
	var b *Bot
	// Must not panic when the bot is disabled.
	b.NotifyTrade(&domain.TradeRecord{Action: domain.ActionBuy, Symbol: "BTC"})
}
