package types

import "strconv"

// PriceLevel represents a single price level in a CLOB order book.
// Prices and sizes arrive as decimal strings.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBook represents the response from the CLOB /book endpoint.
type OrderBook struct {
	Market string       `json:"market"`
	Asks   []PriceLevel `json:"asks"`
	Bids   []PriceLevel `json:"bids"`
}

// BestAsk returns the lowest ask price and its size. Levels are scanned
// rather than indexed because the venue's sort order is not guaranteed.
// The third return is false when the book has no parseable asks.
func (b *OrderBook) BestAsk() (price, size float64, ok bool) {
	if b == nil {
		return 0, 0, false
	}

	for _, level := range b.Asks {
		p, err := strconv.ParseFloat(level.Price, 64)
		if err != nil {
			continue
		}
		s, err := strconv.ParseFloat(level.Size, 64)
		if err != nil {
			continue
		}
		if !ok || p < price {
			price, size, ok = p, s, true
		}
	}

	return price, size, ok
}
