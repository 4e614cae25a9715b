package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"satstacker/internal/bot"
	"satstacker/internal/cache"
	"satstacker/internal/config"
	"satstacker/internal/db"
	"satstacker/internal/domain"
	"satstacker/internal/execution"
	"satstacker/internal/handler"
	"satstacker/internal/job"
	"satstacker/internal/provider"
	"satstacker/internal/repository"
	"satstacker/internal/service"
	"satstacker/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "satstacker/docs"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initPostgresFunc         = db.InitPostgres
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newCandleRepoFunc        = repository.NewCandleRepository
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) service.PriceProvider {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newPriceServiceFunc    = service.NewPriceService
	newCandlePollerFunc    = job.NewCandlePoller
	startPollerFunc        = func(p *job.CandlePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// notifierHolder lets the trading service be wired before the Telegram bot
// exists. Bot.NotifyTrade is nil-safe.
type notifierHolder struct {
	bot *bot.Bot
}

func (h *notifierHolder) NotifyTrade(t *domain.TradeRecord) {
	h.bot.NotifyTrade(t)
}

// @title           satstacker API
// @version         1.0
// @description     A buy-fear / sell-greed crypto accumulation engine with backtesting.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	candleRepo := newCandleRepoFunc(db.Pool, tracer)

	cgProvider := newCoinGeckoProviderFunc(tracer)
	priceService := newPriceServiceFunc(tracer, cgProvider, candleRepo, cache.Client)

	poller := newCandlePollerFunc(tracer, priceService, cfg.CoinGeckoPollSecs)
	startPollerFunc(poller, ctx)

	var backtestStore service.BacktestStore
	var tradeStore service.TradeStore
	if db.Pool != nil {
		backtestStore = repository.NewBacktestRepository(db.Pool, tracer)
		tradeStore = repository.NewTradeRepository(db.Pool, tracer)
	}

	backtestService := service.NewBacktestService(tracer, candleRepo, backtestStore, cfg.BacktestMaxConcurrent, cfg.ATHSeed)

	notifier := &notifierHolder{}
	var tradingService *service.TradingService
	if cfg.TradingEnabled {
		tradingService, err = service.NewTradingService(
			tracer, candleRepo, tradeStore,
			execution.NewSimulated(execution.DefaultFeeRate), notifier,
			cfg.TradeSymbol, cfg.TradeInterval,
			cfg.ActiveStrategies, cfg.InitialCapital, cfg.ATHSeed,
		)
		if err != nil {
			log.Fatalf("failed to create trading service: %v", err)
		}
		trader := job.NewTraderJob(tracer, tradingService, cfg.TradeTickSecs)
		go trader.Start(ctx)
	}

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	var portfolioSource bot.PortfolioSource
	if tradingService != nil {
		portfolioSource = tradingService
	}
	notifier.bot = startTelegramBotFunc(priceService, portfolioSource)

	var portfolioReader handler.PortfolioReader
	if tradingService != nil {
		portfolioReader = tradingService
	}
	h := newHandlerFunc(tracer, priceService, backtestService, portfolioReader, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("satstacker"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
