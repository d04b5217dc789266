package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applisting "github.com/alinasirlou2020/mobile-shop/internal/application/listing"
	apppurchase "github.com/alinasirlou2020/mobile-shop/internal/application/purchase"
	"github.com/alinasirlou2020/mobile-shop/internal/config"
	httptransport "github.com/alinasirlou2020/mobile-shop/internal/infrastructure/http"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/journal"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/memory"
	obsinfra "github.com/alinasirlou2020/mobile-shop/internal/infrastructure/observability"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/observability/oteltrace"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/observability/prometrics"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/observability/zaplogger"
	"github.com/alinasirlou2020/mobile-shop/internal/infrastructure/outbox"
	ledgergw "github.com/alinasirlou2020/mobile-shop/internal/infrastructure/payment"
	"github.com/alinasirlou2020/mobile-shop/internal/observability"
)

func main() {
	cfg := config.Load()

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)

	metricsRegistry := prometrics.New("", "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: metricsRegistry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: metricsRegistry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests served.",
			"method", "route", "status",
		),
		observability.MExternalRequests: metricsRegistry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls into external peers.",
			"peer", "endpoint", "outcome",
		),
		observability.MPurchaseRollbacks: metricsRegistry.Counter(
			string(observability.MPurchaseRollbacks),
			"Count of purchase transactions rolled back after a failed transfer.",
			"reason",
		),
		observability.MEventPublishFailed: metricsRegistry.Counter(
			string(observability.MEventPublishFailed),
			"Count of event publish failures.",
			"event",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: metricsRegistry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: metricsRegistry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: metricsRegistry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of calls into external peers in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}

	tel := obsinfra.New(oteltrace.New(cfg.ServiceName), baseLogger, counters, histograms)
	systemLogger := baseLogger.With(observability.F("component", "main"))

	registry := memory.NewProductRegistry()
	gateway := ledgergw.NewLedgerGateway()

	bus := outbox.NewBus(cfg.EventQueueSize, cfg.EventFanout, baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	journalWorker := journal.New(bus, baseLogger)
	journalWorker.Start()

	addProduct := applisting.NewAddProductUseCase(registry, bus, tel)
	buyProduct := apppurchase.NewBuyProductUseCase(registry, gateway, bus, tel)

	handler := httptransport.NewHandler(addProduct, buyProduct, registry, journalWorker, baseLogger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				observability.F("error", err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			observability.F("error", err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}
