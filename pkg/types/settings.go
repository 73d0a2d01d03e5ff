package types

import (
	"time"

	json "github.com/goccy/go-json"
)

// Settings are the runtime-mutable trading parameters. They are loaded from
// a JSON document at startup, clamped on every update, and rewritten
// wholesale after each accepted change. Durations travel as milliseconds on
// the wire for compatibility with the dashboard.
type Settings struct {
	MinLiquidity         float64
	MaxPositionSize      float64
	StopLossPercentage   float64
	TakeProfitPercentage float64
	ScanInterval         time.Duration
	HoldDuration         time.Duration
	EnabledStrategies    []string
}

type settingsJSON struct {
	MinLiquidity         float64  `json:"minLiquidity"`
	MaxPositionSize      float64  `json:"maxPositionSize"`
	StopLossPercentage   float64  `json:"stopLossPercentage"`
	TakeProfitPercentage float64  `json:"takeProfitPercentage"`
	ScanIntervalMs       int64    `json:"scanIntervalMs"`
	UpdownHoldMs         int64    `json:"updownHoldMs"`
	EnabledStrategies    []string `json:"enabledStrategies"`
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsJSON{
		MinLiquidity:         s.MinLiquidity,
		MaxPositionSize:      s.MaxPositionSize,
		StopLossPercentage:   s.StopLossPercentage,
		TakeProfitPercentage: s.TakeProfitPercentage,
		ScanIntervalMs:       s.ScanInterval.Milliseconds(),
		UpdownHoldMs:         s.HoldDuration.Milliseconds(),
		EnabledStrategies:    s.EnabledStrategies,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var aux settingsJSON
	err := json.Unmarshal(data, &aux)
	if err != nil {
		return err
	}

	s.MinLiquidity = aux.MinLiquidity
	s.MaxPositionSize = aux.MaxPositionSize
	s.StopLossPercentage = aux.StopLossPercentage
	s.TakeProfitPercentage = aux.TakeProfitPercentage
	s.ScanInterval = time.Duration(aux.ScanIntervalMs) * time.Millisecond
	s.HoldDuration = time.Duration(aux.UpdownHoldMs) * time.Millisecond
	s.EnabledStrategies = aux.EnabledStrategies
	return nil
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged;
// unknown fields in the source document are ignored.
type SettingsPatch struct {
	MinLiquidity         *float64 `json:"minLiquidity,omitempty"`
	MaxPositionSize      *float64 `json:"maxPositionSize,omitempty"`
	StopLossPercentage   *float64 `json:"stopLossPercentage,omitempty"`
	TakeProfitPercentage *float64 `json:"takeProfitPercentage,omitempty"`
	ScanIntervalMs       *float64 `json:"scanIntervalMs,omitempty"`
	UpdownHoldMs         *float64 `json:"updownHoldMs,omitempty"`
	EnabledStrategies    []string `json:"enabledStrategies,omitempty"`
}
