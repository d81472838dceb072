package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplacego/internal/clock"
	"marketplacego/internal/config"
	"marketplacego/internal/database/db_client"
	"marketplacego/internal/http/http_server"
	"marketplacego/internal/metrics"
	"marketplacego/internal/notify"
	"marketplacego/internal/payments"
	"marketplacego/internal/redis/redis_client"
	"marketplacego/internal/redis/watcher/auctionwatcher"
	"marketplacego/internal/services/auction"
	"marketplacego/internal/services/listing"
	"marketplacego/internal/services/rental"
	"marketplacego/internal/store"
	"marketplacego/internal/syncbid"
	"marketplacego/internal/syncdb"
	"marketplacego/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	metrics.Register()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Stores: warm the in-memory working set from Postgres snapshots
	snaps := store.NewSnapshotStore(pgDb)
	mem := store.NewMemoryStore()
	restored, err := snaps.LoadAll(ctx)
	if err != nil {
		Log.Fatal("snapshot-load", zap.Error(err))
	}
	for _, l := range restored {
		if err := mem.Create(ctx, l); err != nil {
			Log.Warn("snapshot-restore", zap.String("listing_id", l.ID), zap.Error(err))
		}
	}

	// 6. Payment gateway + at-least-once dispatcher
	gateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken)
	if err != nil {
		Log.Fatal("payment-gateway", zap.Error(err))
	}
	dispatcher := payments.NewDispatcher(gateway, payments.RetryPolicy{
		MaxRetries:    cfg.PaymentMaxRetries,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	})
	go dispatcher.Run(ctx)

	// 7. Services
	clk := clock.Real{}
	notifier := notify.NewRedisPublisher(redisClient)
	timers := auctionwatcher.NewRedisTimers(redisClient, clk)
	journal := syncbid.NewPublisher(redisClient)

	listingService := listing.NewListingService(mem, clk)
	auctionService := auction.NewAuctionService(mem, clk, notifier, dispatcher, timers, journal, cfg.Currency)
	rentalService := rental.NewRentalService(mem, clk, notifier, dispatcher, cfg.Currency)

	// 8. Background: key-expiry watcher + ticker fallback end expired auctions
	go auctionwatcher.Run(ctx, redisClient, auctionService)
	auctionwatcher.Sweep(ctx, mem, auctionService, clk, time.Duration(cfg.SweepIntervalSecs)*time.Second)

	// 9. Background: snapshot mirror + bid journal persister
	syncdb.Run(ctx, mem, snaps)
	syncbid.Run(ctx, redisClient, snaps)

	// 10. WebSockets hub + Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService)

	// 11. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv,
		listingService, auctionService, rentalService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
