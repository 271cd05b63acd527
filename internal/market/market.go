// Package market abstracts the external market-data source. Two backends
// exist: CoinGecko (default) and Coinpaprika.
package market

import (
	"context"
	"time"
)

// Quote is one atomic fetch: the current price plus the reference price from
// roughly 24 hours earlier.
type Quote struct {
	Price        float64
	Reference24h float64
	FetchedAt    time.Time
}

// PricePoint is an extreme (all-time high or low) with its date and the
// change from it to the current price.
type PricePoint struct {
	Price     float64
	Date      time.Time
	ChangePct float64
}

// Stats is the general market statistics snapshot behind the stats/ath/atl
// commands. TotalSupply and ATL are optional: not every backend (or coin)
// reports them.
type Stats struct {
	Rank              int
	Price             float64
	MarketCap         float64
	CirculatingSupply float64
	TotalSupply       float64
	HasTotalSupply    bool
	Volume24h         float64
	ATH               PricePoint
	ATL               PricePoint
	HasATL            bool
}

// Source is the market-data interface the poll loop and the stats commands
// consume. Calls may fail (network, rate limits); failures must never crash
// the caller.
type Source interface {
	Sample(ctx context.Context) (Quote, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Change returns the absolute and percentage difference between the quote's
// current price and its 24h reference.
func (q Quote) Change() (diff, pct float64) {
	diff = q.Price - q.Reference24h
	if q.Reference24h != 0 {
		pct = (q.Price/q.Reference24h - 1) * 100
	}
	return diff, pct
}
