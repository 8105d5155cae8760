package models

// Canonical market block names, in their fixed emission order.
const (
	MarketML       = "ML"
	MarketTotals   = "Totals"
	MarketHandicap = "Handicap"
)

// StatusPending is the only status the scraper ever writes; downstream
// consumers own all later transitions.
const StatusPending = "pending"

// NameRef is a small name + slug descriptor (sport, league).
type NameRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// OddsEntry is one priced line inside a market block. Which fields are
// set depends on the block kind: ML uses home/draw/away, Totals uses
// hdp/over/under, Handicap uses hdp/home/away. Prices are fixed-point
// strings with exactly 3 decimals ("1.950").
type OddsEntry struct {
	Hdp   *float64 `json:"hdp,omitempty"`
	Home  string   `json:"home,omitempty"`
	Draw  string   `json:"draw,omitempty"`
	Away  string   `json:"away,omitempty"`
	Over  string   `json:"over,omitempty"`
	Under string   `json:"under,omitempty"`
}

// MarketBlock is one normalized market on a fixture. A fixture carries
// at most one block per kind.
type MarketBlock struct {
	Name      string      `json:"name"`
	UpdatedAt string      `json:"updatedAt"`
	Odds      []OddsEntry `json:"odds"`
}

// FixtureRecord is one upcoming fixture in the bookmaker-agnostic
// schema handed to persistence. Created fresh each run, never merged
// across runs.
type FixtureRecord struct {
	ID         int64                    `json:"id"`
	Home       string                   `json:"home"`
	Away       string                   `json:"away"`
	Date       string                   `json:"date"`
	Sport      NameRef                  `json:"sport"`
	League     NameRef                  `json:"league"`
	URLs       map[string]string        `json:"urls"`
	Bookmakers map[string][]MarketBlock `json:"bookmakers"`
	Status     string                   `json:"status"`
}
