// Package app wires the bot's components together and manages their
// lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/polytrade/polybot/internal/bot"
	"github.com/polytrade/polybot/internal/gamma"
	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/pkg/cache"
	"github.com/polytrade/polybot/pkg/config"
	"github.com/polytrade/polybot/pkg/healthprobe"
	"github.com/polytrade/polybot/pkg/httpserver"
	"github.com/polytrade/polybot/pkg/websocket"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	bookCache     cache.Cache
	gammaClient   *gamma.Client
	stream        *websocket.Stream
	journal       ledger.Journal
	book          *ledger.Ledger
	settings      *bot.SettingsStore
	bot           *bot.Bot
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
