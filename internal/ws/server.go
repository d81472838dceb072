package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplacego/internal/services/auction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second // must be < pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	router     *Router
	rdc        *redis.Client
	auctionSvc auction.IAuctionService
}

func NewWsServer(h *Hub, rdc *redis.Client, auctionSvc auction.IAuctionService) *WsServer {
	router := NewRouter()
	srv := &WsServer{
		hub:        h,
		subMgr:     newSubscriptionManager(rdc, h),
		router:     router,
		rdc:        rdc,
		auctionSvc: auctionSvc,
	}
	srv.registerHandlers()
	return srv
}

// Handle is the Gin entry-point for the live listing feed.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	listingID := ginCtx.Query("listing_id")
	userID := ginCtx.Query("user_id")
	if listingID == "" || userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "listing_id and user_id are required"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	wsConn := &clientConn{rawConn: rawConn}
	s.hub.Join(listingID, wsConn)
	s.subMgr.Subscribe(listingID) // may be a no-op (already subscribed)

	// Initial snapshot; rental rooms only receive events.
	if err := s.pushInitialSnapshot(ginCtx.Request.Context(), listingID, wsConn); err != nil {
		zap.L().Debug("ws.snapshot", zap.Error(err))
	}

	go s.reader(listingID, userID, wsConn)
	go s.pinger(wsConn)
}

func (s *WsServer) registerHandlers() {
	Register(
		s.router,
		"auctions/bid",
		func(ctx context.Context, cc *ConnContext, req BidRequest) (*auction.BidResult, error) {
			if req.Amount <= 0 {
				return nil, errors.New("invalid_amount")
			}
			return s.auctionSvc.PlaceBid(ctx, cc.ListingID, cc.UserID, req.Amount)
		},
	)
	Register(
		s.router,
		"auctions/buy_now",
		func(ctx context.Context, cc *ConnContext, _ BuyNowRequest) (*auction.BidResult, error) {
			return s.auctionSvc.BuyNow(ctx, cc.ListingID, cc.UserID)
		},
	)
}

func (s *WsServer) pushInitialSnapshot(ctx context.Context, listingID string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	dto, err := s.auctionSvc.GetStatus(ctx, listingID)
	if err != nil {
		return err
	}
	return conn.writeJSON(gin.H{
		"event": "listings/snapshot",
		"body":  dto,
	})
}

func (s *WsServer) reader(listingID, userID string, conn *clientConn) {
	defer func() {
		s.hub.Leave(listingID, conn)
		s.subMgr.Unsubscribe(listingID)
	}()

	cc := &ConnContext{ListingID: listingID, UserID: userID, Server: s}

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  ErrorBody{Error: "bad_envelope"},
			})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  ErrorBody{Error: err.Error()},
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
