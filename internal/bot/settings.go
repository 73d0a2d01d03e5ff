package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// Scan interval and hold duration bounds. The fast floor applies only when
// the operator explicitly allows sub-second scanning.
const (
	minScanInterval = time.Second
	fastScanFloor   = 200 * time.Millisecond
	maxScanInterval = 5 * time.Minute
	minHoldDuration = time.Minute
	maxHoldDuration = time.Hour
)

// DefaultSettings returns the settings written on first start.
func DefaultSettings() types.Settings {
	return types.Settings{
		MinLiquidity:         10000,
		MaxPositionSize:      100,
		StopLossPercentage:   10,
		TakeProfitPercentage: 20,
		ScanInterval:         30 * time.Second,
		HoldDuration:         15 * time.Minute,
		EnabledStrategies:    []string{"arbitrage", "volume_spike", "updown_15"},
	}
}

// SettingsStore owns the runtime-mutable settings document: it loads the
// JSON file at startup, clamps every value into its legal range, and
// rewrites the file after each accepted update.
type SettingsStore struct {
	path          string
	allowFastScan bool
	logger        *zap.Logger
	mu            sync.RWMutex
	current       types.Settings
}

// NewSettingsStore creates a store bound to a settings file path.
func NewSettingsStore(path string, allowFastScan bool, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{
		path:          path,
		allowFastScan: allowFastScan,
		logger:        logger,
		current:       DefaultSettings(),
	}
}

// Load reads the settings file. A missing file seeds the defaults and
// writes them. A corrupt file is logged and left on disk for inspection;
// the store runs on defaults rather than aborting startup.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("settings-file-missing-writing-defaults", zap.String("path", s.path))
		return s.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var loaded types.Settings
	err = json.Unmarshal(data, &loaded)
	if err != nil {
		s.logger.Warn("settings-file-corrupt-using-defaults",
			zap.String("path", s.path),
			zap.Error(err))
		s.current = DefaultSettings()
		return nil
	}

	s.current = s.sanitize(loaded)
	s.logger.Info("settings-loaded", zap.String("path", s.path))

	return nil
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.current
	out.EnabledStrategies = append([]string(nil), s.current.EnabledStrategies...)
	return out
}

// Update applies a partial update, clamps the result, persists it, and
// returns the settings now in effect. Nil patch fields leave the current
// value unchanged.
func (s *SettingsStore) Update(patch types.SettingsPatch) (types.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current

	if patch.MinLiquidity != nil {
		next.MinLiquidity = *patch.MinLiquidity
	}
	if patch.MaxPositionSize != nil {
		next.MaxPositionSize = *patch.MaxPositionSize
	}
	if patch.StopLossPercentage != nil {
		next.StopLossPercentage = *patch.StopLossPercentage
	}
	if patch.TakeProfitPercentage != nil {
		next.TakeProfitPercentage = *patch.TakeProfitPercentage
	}
	if patch.ScanIntervalMs != nil {
		next.ScanInterval = time.Duration(*patch.ScanIntervalMs * float64(time.Millisecond))
	}
	if patch.UpdownHoldMs != nil {
		next.HoldDuration = time.Duration(*patch.UpdownHoldMs * float64(time.Millisecond))
	}
	if patch.EnabledStrategies != nil {
		next.EnabledStrategies = append([]string(nil), patch.EnabledStrategies...)
	}

	s.current = s.sanitize(next)

	err := s.persistLocked()
	if err != nil {
		return s.current, fmt.Errorf("persist settings: %w", err)
	}

	s.logger.Info("settings-updated",
		zap.Float64("min-liquidity", s.current.MinLiquidity),
		zap.Float64("max-position-size", s.current.MaxPositionSize),
		zap.Duration("scan-interval", s.current.ScanInterval),
		zap.Strings("enabled-strategies", s.current.EnabledStrategies))

	return s.current, nil
}

// sanitize clamps every field into its legal range.
func (s *SettingsStore) sanitize(in types.Settings) types.Settings {
	out := in

	if out.MinLiquidity < 0 {
		out.MinLiquidity = 0
	}
	if out.MaxPositionSize < 0 {
		out.MaxPositionSize = 0
	}
	out.StopLossPercentage = clampFloat(out.StopLossPercentage, 0, 100)
	out.TakeProfitPercentage = clampFloat(out.TakeProfitPercentage, 0, 100)

	floor := minScanInterval
	if s.allowFastScan {
		floor = fastScanFloor
	}
	out.ScanInterval = clampDuration(out.ScanInterval, floor, maxScanInterval)
	out.HoldDuration = clampDuration(out.HoldDuration, minHoldDuration, maxHoldDuration)

	kept := make([]string, 0, len(out.EnabledStrategies))
	for _, id := range out.EnabledStrategies {
		id = strings.TrimSpace(id)
		if id != "" {
			kept = append(kept, id)
		}
	}
	out.EnabledStrategies = kept

	return out
}

// persistLocked writes the settings document atomically: temp file in the
// same directory, then rename. Callers must hold the write lock.
func (s *SettingsStore) persistLocked() error {
	dir := filepath.Dir(s.path)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp settings file: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp settings file: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace settings file: %w", err)
	}

	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
