package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/store-dashboard/internal/api"
	"github.com/safar/store-dashboard/internal/config"
	"github.com/safar/store-dashboard/internal/dashboard"
	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/logger"
	"github.com/safar/store-dashboard/internal/media"
	"github.com/safar/store-dashboard/internal/store"
	"github.com/safar/store-dashboard/internal/store/memstore"
	"go.uber.org/zap"
)

// recordStore is the union of what the dashboard needs from storage.
type recordStore interface {
	dashboard.ProductStore
	dashboard.OrderStore
	api.Pinger
}

type backend struct {
	records  recordStore
	members  dashboard.MembershipSource
	invoices dashboard.InvoiceProvider
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg := logger.New(cfg.Log, cfg.IsProduction())
	defer logg.Sync()

	be, err := openBackend(cfg, logg)
	if err != nil {
		logg.Fatal("open record store", zap.Error(err))
	}
	defer be.close()

	thumbs, err := media.NewThumbnails(cfg.Media.CloudinaryURL, cfg.Media.ThumbnailTransform, logg.Named("media"))
	if err != nil {
		logg.Fatal("init thumbnails", zap.Error(err))
	}

	svcLog := logg.Named("dashboard")
	services := api.Services{
		Stats: dashboard.NewStatsAggregator(be.records, be.records, be.members,
			dashboard.StatsOptions{LowStockThreshold: &cfg.Dashboard.LowStockThreshold}, svcLog),
		Inventory: dashboard.NewInventoryEngine(be.records, thumbs,
			dashboard.InventoryOptions{DefaultPerPage: cfg.Dashboard.DefaultPerPage}, svcLog),
		Orders:   dashboard.NewOrderCalculator(be.records, cfg.Dashboard.DefaultPerPage, svcLog),
		Members:  dashboard.NewMemberDirectory(be.members, cfg.Dashboard.MembersLimit, svcLog),
		Invoices: dashboard.NewInvoiceLocator(be.invoices, cfg.Dashboard.InvoicePlaceholder, svcLog),
		Store:    be.records,
	}

	handler := api.NewRouter(services, api.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		DefaultPerPage: cfg.Dashboard.DefaultPerPage,
		MaxPerPage:     cfg.Dashboard.MaxPerPage,
	}, logg.Named("http"))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	logg.Info("server stopped")
}

// openBackend picks the in-memory store for memory:// and Postgres
// otherwise. Memberships and invoices are wired only when their tables
// exist.
func openBackend(cfg *config.Config, logg *zap.Logger) (*backend, error) {
	if cfg.Database.URL == config.MemoryDatabaseURL {
		logg.Warn("using in-memory record store; data is lost on exit")
		ms := memstore.New()
		return &backend{
			records:  ms,
			members:  ms.Memberships(),
			invoices: ms.Invoices(),
			close:    func() {},
		}, nil
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}
	logg.Info("connected to database")

	be := &backend{
		records: store.New(db),
		close: func() {
			if err := db.Close(); err != nil {
				logg.Warn("close database", zap.Error(err))
			}
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if ok, err := database.TableExists(ctx, db, "memberships"); err != nil {
		logg.Warn("membership probe failed", zap.Error(err))
	} else if ok {
		be.members = store.NewMemberships(db)
	} else {
		logg.Info("memberships table not found; member features disabled")
	}

	if ok, err := database.TableExists(ctx, db, "invoices"); err != nil {
		logg.Warn("invoice probe failed", zap.Error(err))
	} else if ok {
		be.invoices = store.NewInvoices(db)
	} else {
		logg.Info("invoices table not found; invoice links use the placeholder")
	}

	return be, nil
}
