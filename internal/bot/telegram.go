package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"satstacker/internal/domain"
	"satstacker/internal/service"

	tele "gopkg.in/telebot.v3"
)

// PriceSource is the slice of the price service the bot consumes.
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

// PortfolioSource exposes the live trading books. May be nil when live
// trading is disabled.
type PortfolioSource interface {
	Portfolios() []service.StrategyPortfolio
}

// Bot wraps the Telegram connection and doubles as the trade notifier.
type Bot struct {
	bot    *tele.Bot
	chatID int64
}

// StartTelegramBot connects the bot and registers command handlers. Returns
// nil when TELEGRAM_BOT_TOKEN is unset, which disables notifications too.
func StartTelegramBot(prices PriceSource, portfolios PortfolioSource) *Bot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	var chatID int64
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			chatID = n
		} else {
			log.Printf("invalid TELEGRAM_CHAT_ID %q, trade notifications disabled", v)
		}
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.CoinGeckoID[symbol]; !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		snapshot, err := prices.GetCurrentPrice(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			symbol, snapshot.PriceUSD, snapshot.Change24hPct, snapshot.Volume24h,
		)
		return c.Send(msg)
	})

	b.Handle("/portfolio", func(c tele.Context) error {
		if portfolios == nil {
			return c.Send("Live trading is disabled")
		}
		books := portfolios.Portfolios()
		if len(books) == 0 {
			return c.Send("No active strategies")
		}
		var sb strings.Builder
		for _, p := range books {
			fmt.Fprintf(&sb, "%s (%s)\n", p.Name, p.StrategyID)
			fmt.Fprintf(&sb, "  Cash: $%.2f  Crypto: %.6f ($%.2f)\n", p.State.Cash, p.State.CryptoAmount, p.State.CryptoValue)
			fmt.Fprintf(&sb, "  Total: $%.2f  Unrealized: %.2f%%  Realized: $%.2f\n",
				p.State.TotalValue, p.State.UnrealizedPnLPercent, p.Realized)
		}
		return c.Send(sb.String())
	})

	log.Println("Telegram bot started")
	go b.Start()

	return &Bot{bot: b, chatID: chatID}
}

// NotifyTrade pushes an executed trade to the configured chat. No-op when
// no chat is configured.
func (b *Bot) NotifyTrade(t *domain.TradeRecord) {
	if b == nil || b.chatID == 0 {
		return
	}
	msg := fmt.Sprintf("%s %s %s\n%.6f @ $%.2f ($%.2f)\nRegime: %s (%d)\n%s",
		strings.ToUpper(string(t.Action)), t.Symbol, t.StrategyID,
		t.Amount, t.Price, t.ValueUSD, t.Regime, t.RegimeScore, t.Reason)
	if t.Profit != nil {
		msg += fmt.Sprintf("\nProfit: $%.2f (%.2f%%)", *t.Profit, *t.ProfitPercent)
	}
	if _, err := b.bot.Send(&tele.Chat{ID: b.chatID}, msg); err != nil {
		log.Printf("telegram notify error: %v", err)
	}
}
