package types

// StreamEvent represents a single event object inside an inbound WebSocket
// frame. Only price_change and book events are forwarded downstream.
type StreamEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
}

// PriceUpdate is the normalized notification emitted for recognized stream
// events. Price is the latest traded/quoted price for the asset, interpreted
// by consumers as the YES probability of the markets the asset belongs to.
type PriceUpdate struct {
	AssetID string
	Price   float64
}
