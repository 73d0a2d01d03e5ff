package types

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestSettingsWireFormat(t *testing.T) {
	s := Settings{
		MinLiquidity:         5000,
		MaxPositionSize:      100,
		StopLossPercentage:   10,
		TakeProfitPercentage: 20,
		ScanInterval:         30 * time.Second,
		HoldDuration:         15 * time.Minute,
		EnabledStrategies:    []string{"arbitrage", "updown_15"},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// Durations travel as milliseconds, not Go duration encoding.
	if !strings.Contains(string(data), `"scanIntervalMs":30000`) {
		t.Errorf("expected scanIntervalMs 30000 in %s", data)
	}
	if !strings.Contains(string(data), `"updownHoldMs":900000`) {
		t.Errorf("expected updownHoldMs 900000 in %s", data)
	}

	var back Settings
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.ScanInterval != 30*time.Second {
		t.Errorf("scan interval = %v, want 30s", back.ScanInterval)
	}
	if back.HoldDuration != 15*time.Minute {
		t.Errorf("hold duration = %v, want 15m", back.HoldDuration)
	}
	if len(back.EnabledStrategies) != 2 || back.EnabledStrategies[1] != "updown_15" {
		t.Errorf("unexpected strategies: %v", back.EnabledStrategies)
	}
}

func TestSettingsPatchIgnoresUnknownFields(t *testing.T) {
	raw := `{"maxPositionSize": 75, "somethingElse": true}`

	var patch SettingsPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if patch.MaxPositionSize == nil || *patch.MaxPositionSize != 75 {
		t.Errorf("expected maxPositionSize 75, got %v", patch.MaxPositionSize)
	}
	if patch.MinLiquidity != nil {
		t.Error("expected untouched field to stay nil")
	}
}

func TestOutcomeDirectional(t *testing.T) {
	if !OutcomeYes.Directional() {
		t.Error("YES should be directional")
	}
	if !OutcomeNo.Directional() {
		t.Error("NO should be directional")
	}
	if OutcomeBoth.Directional() {
		t.Error("BOTH should not be directional")
	}
}
