// Package websocket maintains the streaming market-data connection to the
// Polymarket CLOB WebSocket endpoint.
package websocket

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// Control tokens the server sends as plain text. Dropped silently.
const (
	controlPong        = "PONG"
	controlNoNewAssets = "NO NEW ASSETS"
)

// Stream manages a single WebSocket connection to the market venue. It owns
// the desired subscription set: ids subscribed while disconnected are queued
// and replayed in one frame when the connection opens, and the full set is
// replayed after every reconnect.
type Stream struct {
	url          string
	channel      string
	conn         *websocket.Conn
	logger       *zap.Logger
	reconnectMgr *ReconnectManager
	config       Config
	updates      chan types.PriceUpdate
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	writeMu      sync.Mutex
	desired      map[string]bool // full desired subscription set
	connected    atomic.Bool
}

// Config holds stream configuration.
type Config struct {
	URL                   string
	Channel               string
	DialTimeout           time.Duration
	HeartbeatInterval     time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	UpdateBufferSize      int
	Logger                *zap.Logger
}

// subscribeFrame is the outbound subscription message.
type subscribeFrame struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
	Operation string   `json:"operation"`
}

// New creates a new market-data stream.
func New(cfg Config) *Stream {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Stream{
		url:          cfg.URL,
		channel:      cfg.Channel,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		updates:      make(chan types.PriceUpdate, cfg.UpdateBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		desired:      make(map[string]bool),
	}
}

// Start opens the connection and launches the read, heartbeat, and reconnect
// loops. A failed initial dial is logged, not fatal: the reconnect loop keeps
// trying with backoff, so startup never depends on the venue being up.
func (s *Stream) Start() error {
	s.logger.Info("market-stream-starting", zap.String("url", s.url))

	err := s.connect(s.ctx)
	if err != nil {
		s.logger.Warn("initial-connection-failed", zap.Error(err))
	} else {
		s.wg.Add(1)
		go s.readLoop()
	}

	s.wg.Add(2)
	go s.heartbeatLoop()
	go s.reconnectLoop()

	return nil
}

// connect establishes the WebSocket connection and replays the desired
// subscription set.
func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.connected.Store(true)
	ActiveConnections.Set(1)

	s.logger.Info("market-stream-connected")

	err = s.replayDesired()
	if err != nil {
		return fmt.Errorf("replay subscriptions: %w", err)
	}

	return nil
}

// Subscribe registers asset ids for price updates. Ids already in the
// desired set are ignored. When the connection is down the new ids are
// queued and flushed on (re)connect; when it is open a single subscribe
// frame containing only the new ids is sent.
func (s *Stream) Subscribe(assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	newIDs := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if !s.desired[id] {
			newIDs = append(newIDs, id)
			s.desired[id] = true
		}
	}
	total := len(s.desired)
	s.mu.Unlock()

	if len(newIDs) == 0 {
		s.logger.Debug("all-assets-already-subscribed")
		return nil
	}

	SubscriptionCount.Set(float64(total))

	if !s.connected.Load() {
		// Queued only; replayed once the connection opens.
		s.logger.Debug("subscriptions-queued", zap.Int("count", len(newIDs)))
		return nil
	}

	err := s.sendSubscribe(newIDs)
	if err != nil {
		// Keep the ids in the desired set: the reconnect path will replay
		// them once the connection is healthy again.
		return fmt.Errorf("write subscribe frame: %w", err)
	}

	s.logger.Info("subscribed-to-assets",
		zap.Int("new-count", len(newIDs)),
		zap.Int("total-count", total))

	return nil
}

// replayDesired resubscribes the full desired set in one frame.
func (s *Stream) replayDesired() error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.desired))
	for id := range s.desired {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	err := s.sendSubscribe(ids)
	if err != nil {
		return err
	}

	s.logger.Info("resubscribed-to-all-assets", zap.Int("count", len(ids)))
	return nil
}

// sendSubscribe writes a single subscribe frame.
func (s *Stream) sendSubscribe(ids []string) error {
	frame := subscribeFrame{
		AssetsIDs: ids,
		Type:      s.channel,
		Operation: "subscribe",
	}

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("no connection")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(frame)
}

// readLoop reads and demultiplexes inbound frames.
func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			s.logger.Warn("read-error", zap.Error(err))
			s.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		s.handleFrame(message)
	}
}

// handleFrame filters control tokens, parses JSON frames, and forwards
// recognized events as normalized price updates. Malformed frames are
// logged and dropped without propagating.
func (s *Stream) handleFrame(message []byte) {
	trimmed := strings.TrimSpace(string(message))
	if trimmed == "" || trimmed == controlPong || trimmed == controlNoNewAssets {
		return
	}

	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		s.logger.Debug("non-json-frame-dropped", zap.Int("bytes", len(message)))
		return
	}

	var events []types.StreamEvent
	err := json.Unmarshal([]byte(trimmed), &events)
	if err != nil {
		// Single-object frames (subscription confirmations etc.) are not
		// price events; try to decode one for logging, then drop.
		FramesDroppedTotal.WithLabelValues("unparseable").Inc()
		s.logger.Debug("unparseable-frame-dropped",
			zap.Error(err),
			zap.Int("bytes", len(message)))
		return
	}

	for i := range events {
		s.handleEvent(&events[i])
	}
}

// handleEvent forwards a single recognized event.
func (s *Stream) handleEvent(event *types.StreamEvent) {
	MessagesReceivedTotal.WithLabelValues(event.EventType).Inc()

	if event.EventType != "price_change" && event.EventType != "book" {
		return
	}

	if event.AssetID == "" {
		return
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		FramesDroppedTotal.WithLabelValues("bad_price").Inc()
		s.logger.Debug("price-parse-failed",
			zap.String("asset-id", event.AssetID),
			zap.String("price", event.Price))
		return
	}

	update := types.PriceUpdate{AssetID: event.AssetID, Price: price}

	select {
	case s.updates <- update:
	default:
		s.logger.Warn("update-channel-full", zap.String("asset-id", event.AssetID))
		FramesDroppedTotal.WithLabelValues("channel_full").Inc()
	}
}

// heartbeatLoop sends the venue's plain-text PING keepalive at a fixed
// interval while connected.
func (s *Stream) heartbeatLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.connected.Load() {
				continue
			}

			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()

			if conn == nil {
				continue
			}

			s.writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, []byte("PING"))
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Warn("heartbeat-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop re-establishes the connection with backoff whenever it
// drops, then restarts the read loop. The process never terminates from
// this path.
func (s *Stream) reconnectLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if s.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		s.logger.Warn("connection-lost-initiating-reconnect")

		err := s.reconnectMgr.Reconnect(s.ctx, s.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			s.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		s.logger.Info("reconnection-complete-restarting-read-loop")

		s.wg.Add(1)
		go s.readLoop()
	}
}

// Updates returns the channel of normalized price updates.
func (s *Stream) Updates() <-chan types.PriceUpdate {
	return s.updates
}

// Connected reports whether the transport is currently open.
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// Close gracefully closes the stream.
func (s *Stream) Close() error {
	s.logger.Info("closing-market-stream")

	s.cancel()

	s.mu.RLock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.RUnlock()

	s.wg.Wait()

	close(s.updates)
	ActiveConnections.Set(0)

	s.logger.Info("market-stream-closed")

	return nil
}
