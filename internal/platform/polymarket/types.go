package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBook is an orderbook snapshot as returned by the CLOB /book endpoint.
// Prices and sizes arrive as decimal strings.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
}

// APIBookLevel is a single price level in a CLOB book response.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Several fields are JSON documents embedded in strings (outcomes, prices,
// token IDs), which is how Gamma actually sends them.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"conditionId"`
	Slug          string   `json:"slug"`
	Category      string   `json:"category"`
	Active        flexBool `json:"active"`
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // e.g. "[\"0.52\",\"0.48\"]"
	ClobTokenIDs  string   `json:"clobTokenIds"`  // e.g. "[\"123\",\"456\"]"
	Volume        string   `json:"volume"`
	Liquidity     string   `json:"liquidity"`
	EndDateISO    string   `json:"endDateIso"`
	UpdatedAt     string   `json:"updatedAt"`
}

// TokenIDs decodes the embedded clobTokenIds document. Index 0 is the YES
// token and index 1 the NO token for binary markets.
func (m *APIMarket) TokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// ToNormalizedMarket converts a Gamma APIMarket into the canonical cross-venue
// record. Outcome prices are decoded from the embedded JSON string; a market
// without a parseable YES price gets probability 0 and is filtered upstream.
func (m *APIMarket) ToNormalizedMarket() domain.NormalizedMarket {
	nm := domain.NormalizedMarket{
		ExternalID:  m.ID,
		Platform:    PlatformName,
		Question:    m.Question,
		Category:    m.Category,
		LastUpdated: time.Now().UTC(),
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil {
		if len(prices) > 0 {
			nm.YesProbability, _ = strconv.ParseFloat(prices[0], 64)
		}
		if len(prices) > 1 {
			nm.NoProbability, _ = strconv.ParseFloat(prices[1], 64)
		}
	}
	if nm.NoProbability == 0 && nm.YesProbability > 0 {
		nm.NoProbability = 1 - nm.YesProbability
	}

	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		nm.Volume = v
	}
	if l, err := strconv.ParseFloat(m.Liquidity, 64); err == nil {
		nm.Liquidity = l
	}
	if m.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
			nm.EndDate = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		nm.LastUpdated = t
	}

	return nm
}

// ToOrderBook converts a CLOB book response into a normalized domain book:
// zero-size levels dropped, bids sorted descending, asks ascending.
func (b *APIBook) ToOrderBook() domain.OrderBook {
	book := domain.OrderBook{
		MarketID: b.Market,
		TokenID:  b.AssetID,
	}

	book.Bids = parseLevels(b.Bids)
	book.Asks = parseLevels(b.Asks)

	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	if ms, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		book.Timestamp = time.UnixMilli(ms)
	} else {
		book.Timestamp = time.Now().UTC()
	}

	return book
}

func parseLevels(levels []APIBookLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		p, errP := strconv.ParseFloat(lvl.Price, 64)
		s, errS := strconv.ParseFloat(lvl.Size, 64)
		if errP != nil || errS != nil || s <= 0 {
			continue
		}
		out = append(out, domain.PriceLevel{Price: p, Size: s})
	}
	return out
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSBookMessage is a full orderbook snapshot delivered over the market
// WebSocket channel.
type WSBookMessage struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// ToOrderBook normalizes a WebSocket book snapshot the same way the REST
// path does.
func (m *WSBookMessage) ToOrderBook() domain.OrderBook {
	ab := APIBook{
		Market:    m.Market,
		AssetID:   m.AssetID,
		Timestamp: m.Timestamp,
		Bids:      m.Bids,
		Asks:      m.Asks,
	}
	return ab.ToOrderBook()
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe.
type WSCommand struct {
	Type   string   `json:"type"` // "subscribe" or "unsubscribe"
	Assets []string `json:"assets_ids,omitempty"`
}
