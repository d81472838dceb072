package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketplacego/internal/http/auctionhandler"
	"marketplacego/internal/http/listinghandler"
	"marketplacego/internal/http/rentalhandler"
	"marketplacego/internal/services/auction"
	"marketplacego/internal/services/listing"
	"marketplacego/internal/services/rental"
	"marketplacego/internal/ws"
)

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	listingSvc listing.IListingService
	auctionSvc auction.IAuctionService
	rentalSvc  rental.IRentalService
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer,
	listingSvc listing.IListingService, auctionSvc auction.IAuctionService,
	rentalSvc rental.IRentalService) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		wsSrv:      wsSrv,
		listingSvc: listingSvc,
		auctionSvc: auctionSvc,
		rentalSvc:  rentalSvc,
		ctx:        ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint (live auction feed)
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// Prometheus scrape endpoint
	routerEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// REST API
	listinghandler.New(h.listingSvc).Register(routerEngine)
	auctionhandler.New(h.auctionSvc).Register(routerEngine)
	rentalhandler.New(h.rentalSvc).Register(routerEngine)

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}

	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
	}

	return nil
}
