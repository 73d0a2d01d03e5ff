package websocket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig bounds the exponential backoff between connection attempts.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = up to 20% added to each delay
}

// ReconnectManager drives repeated connection attempts with exponential
// backoff and jitter. A successful attempt resets the backoff so the next
// outage starts over from the initial delay.
type ReconnectManager struct {
	config  ReconnectConfig
	logger  *zap.Logger
	mu      sync.Mutex
	delay   time.Duration
	attempt int
}

// NewReconnectManager creates a reconnection manager.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	return &ReconnectManager{
		config: cfg,
		logger: logger,
		delay:  cfg.InitialDelay,
	}
}

// Reconnect calls connect until it succeeds or the context is done, waiting
// a jittered, exponentially growing delay before each attempt.
func (rm *ReconnectManager) Reconnect(ctx context.Context, connect func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wait, attempt := rm.nextDelay()

		rm.logger.Info("attempting-reconnection",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connect(ctx)
		if err == nil {
			rm.logger.Info("reconnection-successful", zap.Int("attempts", attempt))
			rm.Reset()
			return nil
		}

		rm.logger.Warn("reconnection-failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		ReconnectFailuresTotal.Inc()

		rm.backOff()
	}
}

// Reset restores the initial delay and clears the attempt counter.
func (rm *ReconnectManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.delay = rm.config.InitialDelay
	rm.attempt = 0
}

// nextDelay returns the jittered delay for the next attempt and the attempt
// number, starting at 1.
func (rm *ReconnectManager) nextDelay() (time.Duration, int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.attempt++
	jittered := float64(rm.delay) * (1 + rand.Float64()*rm.config.JitterPercent)
	return time.Duration(jittered), rm.attempt
}

// backOff grows the stored delay by the multiplier, capped at MaxDelay.
func (rm *ReconnectManager) backOff() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	next := time.Duration(float64(rm.delay) * rm.config.BackoffMultiplier)
	if next > rm.config.MaxDelay {
		next = rm.config.MaxDelay
	}
	rm.delay = next
}
