package types

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Event represents an event record from the Gamma API /events endpoint.
// Each event groups one or more markets under a shared slug.
type Event struct {
	ID      string   `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Tag returns a coarse category derived from the event slug.
func (e *Event) Tag() string {
	if e.Slug == "" {
		return "General"
	}
	head, _, _ := strings.Cut(e.Slug, "-")
	if head == "" {
		return "General"
	}
	return head
}

// Market represents a single market nested inside a Gamma event.
// OutcomePrices and ClobTokenIDs arrive as JSON-encoded strings and are
// decoded on demand via YesProbability and TokenIDs.
type Market struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Active        bool      `json:"active"`
	Closed        bool      `json:"closed"`
	Volume        FlexFloat `json:"volume"`
	Volume24hr    FlexFloat `json:"volume24hr"`
	OutcomePrices string    `json:"outcomePrices"`
	ClobTokenIDs  string    `json:"clobTokenIds"`
}

// YesProbability decodes the outcome-price list and returns the first entry
// as the market-implied YES probability. The second return is false when the
// field is missing or malformed.
func (m *Market) YesProbability() (float64, bool) {
	entries, ok := DecodeStringArray(m.OutcomePrices)
	if !ok || len(entries) == 0 {
		return 0, false
	}

	prob, err := strconv.ParseFloat(entries[0], 64)
	if err != nil {
		return 0, false
	}

	return prob, true
}

// TokenIDs decodes the tradable CLOB token id list. The second return is
// false when the field is missing or malformed.
func (m *Market) TokenIDs() ([]string, bool) {
	return DecodeStringArray(m.ClobTokenIDs)
}

// DecodeStringArray decodes a JSON-encoded array of strings. It is the single
// tolerant-parse helper for Gamma fields that embed JSON inside a string;
// callers treat a false return as "skip this market" rather than an error.
func DecodeStringArray(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}

	var out []string
	err := json.Unmarshal([]byte(raw), &out)
	if err != nil {
		return nil, false
	}

	return out, true
}

// FlexFloat is a float64 that accepts both JSON numbers and numeric strings.
// Gamma serves volume as a string on some endpoints and a number on others.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Tolerate junk values rather than failing the whole payload.
		*f = 0
		return nil
	}

	*f = FlexFloat(v)
	return nil
}

// ScannedMarket is the per-scan market view served to the control plane.
type ScannedMarket struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Volume      float64 `json:"volume"`
	Probability float64 `json:"probability"`
	Tag         string  `json:"tag"`
}
