package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"go.uber.org/zap"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/clients/tg"
	"expensetrack/companion-bot/internal/config"
	"expensetrack/companion-bot/internal/logger"
	"expensetrack/companion-bot/internal/model/actions"
	"expensetrack/companion-bot/internal/model/localstate"
	"expensetrack/companion-bot/internal/model/messages"
	"expensetrack/companion-bot/internal/model/refresh"
)

const metricsAddr = "127.0.0.1:9876"

func main() {
	logger.Info("Bot init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}

	closer, err := initTracing(conf)
	if err != nil {
		logger.Fatal("failed to init tracing:", zap.Error(err))
	}
	defer closer.Close()

	client, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init client:", zap.Error(err))
	}

	state, err := localstate.New(conf.State())
	if err != nil {
		logger.Fatal("failed to init local state:", zap.Error(err))
	}

	api := expenseapi.New(conf.API())
	notifier := messages.NewNotifier(client, conf.Telegram().OwnerID())
	coordinator := actions.New(api, notifier, state, conf.State())
	msgService := messages.NewService(client, coordinator)
	refresher := refresh.NewRefresher(coordinator, conf.App())

	logger.Info("Bot init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go serveMetrics()
	go refresher.Run(ctx)

	client.ListenUpdates(ctx, msgService)
}

func initTracing(conf *config.Service) (io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: conf.Trace().ServiceName(),
		Sampler: &jaegercfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}

func serveMetrics() {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(metricsAddr, nil); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
