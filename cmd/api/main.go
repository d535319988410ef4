package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/audit"
	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/payment"
	"github.com/ariefcatur/go-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: audit trail + catalog mirror feed
	auditProd := kafkax.NewProducer(cfg.KafkaBrokers, audit.TopicEntityChanged, 1024)
	auditProd.Start(ctx)
	catalogProd := kafkax.NewProducer(cfg.KafkaBrokers, catalog.TopicItemChanged, 1024)
	catalogProd.Start(ctx)

	recorder := &audit.KafkaRecorder{Producer: auditProd, Service: cfg.ServiceName}

	// Order store + catalog source, selected by config
	var (
		store  orders.Store
		source catalog.Source
		stock  catalog.StockWriter
	)
	switch cfg.StoreBackend {
	case "memory":
		mem := orders.NewMemStore(recorder, demoItems()...)
		store, source, stock = mem, mem, mem
		log.Info("using in-memory store")
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		repo := &catalog.Repo{DB: db}
		store = &orders.PGStore{DB: db, Audit: recorder}
		source, stock = repo, repo
	}

	cache := &cart.RedisCache{Client: rdb}
	cartSvc := &cart.Service{
		Catalog:  source,
		Store:    store,
		Cache:    cache,
		Producer: catalogProd,
		Service:  cfg.ServiceName,
		Log:      log,
	}
	checkout := &payment.Checkout{
		Store:      store,
		Gateway:    payment.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayTimeout),
		Renderer:   payment.NewHTTPRenderer(cfg.RendererURL, cfg.GatewayTimeout),
		Cache:      cache,
		AccountRef: cfg.GatewayAccountRef,
		ExpiryDays: cfg.ReceiptExpiryDays,
		Log:        log,
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Cart: cartSvc}).Register(router)
	(&httpx.PaymentHandler{Checkout: checkout}).Register(router)
	(&httpx.CatalogHandler{
		Catalog:  source,
		Stock:    stock,
		Producer: catalogProd,
		Service:  cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	auditProd.Close()
	catalogProd.Close()
	cancel()
	auditProd.WaitClosed()
	catalogProd.WaitClosed()
}

// demoItems seeds the memory backend so the API is usable without a
// database, mainly for local poking.
func demoItems() []catalog.Item {
	return []catalog.Item{
		{Alias: "sword", Name: "Iron Sword", PriceCents: 4999, Stock: 5},
		{Alias: "shield", Name: "Oak Shield", PriceCents: 2999, Stock: 8},
		{Alias: "arrow", Name: "Arrow Bundle", PriceCents: 499, DiscountPct: 10, Stock: 50},
	}
}
