package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Ticker is the live decision loop the job drives.
type Ticker interface {
	Tick(ctx context.Context) error
}

// TraderJob invokes the trading service on a fixed interval. Each tick runs
// synchronously inside the loop, so ticks can never overlap: a slow tick
// delays the next one rather than racing it.
type TraderJob struct {
	tracer   trace.Tracer
	trading  Ticker
	interval time.Duration
}

func NewTraderJob(tracer trace.Tracer, trading Ticker, intervalSecs int) *TraderJob {
	return &TraderJob{
		tracer:   tracer,
		trading:  trading,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (j *TraderJob) Start(ctx context.Context) {
	log.Println("Trader job starting...")

	j.tick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Trader job stopped")
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *TraderJob) tick(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "trader-job.tick")
	defer span.End()

	if err := j.trading.Tick(ctx); err != nil {
		log.Printf("trader tick error: %v", err)
	}
}
