package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appAlert "github.com/jroahs/Ring-Wing-sub004/internal/application/alert"
	appInventory "github.com/jroahs/Ring-Wing-sub004/internal/application/inventory"
	appOrder "github.com/jroahs/Ring-Wing-sub004/internal/application/order"
	appPayment "github.com/jroahs/Ring-Wing-sub004/internal/application/payment"
	"github.com/jroahs/Ring-Wing-sub004/internal/config"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/eventbus"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/eventlog"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/id"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/memory"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/reaper"
	"github.com/jroahs/Ring-Wing-sub004/internal/pkg/logging"
	httppresentation "github.com/jroahs/Ring-Wing-sub004/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	m := metrics.New(prometheus.DefaultRegisterer)

	orderRepo := memory.NewOrderRepository()
	inventoryRepo := memory.NewInventoryRepository()
	recipes := memory.NewRecipeCatalog()
	idGenerator := id.NewUUIDGenerator()
	receipts := id.NewReceiptNumbers("RW")

	bus := eventbus.New(baseLogger, m, cfg.EventThrottleDefault)

	ledger := appInventory.NewLedger(inventoryRepo, recipes, bus, idGenerator, m, cfg.ReservationTimeout)
	evaluator := appInventory.NewEvaluator(inventoryRepo, recipes)
	orderService := appOrder.NewService(orderRepo, ledger, idGenerator, receipts, bus, cfg.PaymentVerificationTimeout)
	paymentService := appPayment.NewService(orderRepo, ledger, bus, m, cfg.PaymentVerificationTimeout)
	alertService := appAlert.NewService(ledger, ledger, evaluator, cfg.AlertExpiryLeadTime)

	activity := eventlog.NewRecorder(baseLogger)
	activity.Register(bus,
		"newPaymentOrder", "orderStatusChanged",
		"paymentVerified", "paymentRejected",
		"reservationCreated", "reservationCompleted", "reservationReleased",
		"stockLevelChanged", "alertTriggered",
	)

	sweeper := reaper.New(ledger, paymentService, alertService, bus, m, cfg.ReaperInterval, baseLogger)

	if cfg.SeedDemoData {
		seedDemoData(context.Background(), ledger, recipes, baseLogger)
	}

	handler := httppresentation.NewHandler(orderService, paymentService, ledger, evaluator, alertService, activity)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router(baseLogger, m))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		bus.Stop(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		baseLogger.Error("server_exit", zap.Error(err))
		os.Exit(1)
	}
	baseLogger.Info("server_stopped")
}
