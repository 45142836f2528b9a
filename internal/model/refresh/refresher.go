package refresh

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"expensetrack/companion-bot/internal/entity/expense"
	"expensetrack/companion-bot/internal/logger"
)

type model interface {
	IsAuthenticated() bool
	FetchAll(ctx context.Context) ([]expense.Expense, error)
}

type config interface {
	RefreshMinutes() int64
}

// Refresher keeps the local expense cache warm by re-fetching in the
// background. Failures are logged and swallowed; the next tick tries
// again. A zero delay disables the ticker entirely.
type Refresher struct {
	model model
	delay int64
}

func NewRefresher(model model, config config) *Refresher {
	return &Refresher{
		model: model,
		delay: config.RefreshMinutes(),
	}
}

func (r *Refresher) Run(ctx context.Context) {
	// the session-start fetch runs even when periodic refresh is off
	r.refreshOnce(ctx)

	if r.delay <= 0 {
		logger.Info("Background refresh disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(r.delay) * time.Minute)
	defer ticker.Stop()

	logger.Info("Start background refresh")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop background refresh")
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	if !r.model.IsAuthenticated() {
		return
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "refreshExpenses")
	defer span.Finish()

	if _, err := r.model.FetchAll(ctx); err != nil {
		ext.Error.Set(span, true)
		logger.Error("cannot refresh expenses", zap.Error(err))
		return
	}
	logger.Info("Successfully refreshed expenses")
}
