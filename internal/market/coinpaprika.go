package market

import (
	"context"
	"net/http"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Coinpaprika is the alternate market-data backend built on the official
// Coinpaprika API client. The Coinpaprika ticker carries no all-time low, so
// Stats from this backend report HasATL=false.
type Coinpaprika struct {
	client *coinpaprika.Client
	coinID string
	quote  string
}

// NewCoinpaprika builds a Coinpaprika source. apiKey may be empty for the
// free tier. quote is the fiat quote symbol, e.g. "USD"; timeout bounds every
// request.
func NewCoinpaprika(apiKey, coinID, quote string, timeout time.Duration) *Coinpaprika {
	return newCoinpaprika(&http.Client{Timeout: timeout}, apiKey, coinID, quote)
}

func newCoinpaprika(httpClient *http.Client, apiKey, coinID, quote string) *Coinpaprika {
	opts := []coinpaprika.ClientOptions{}
	if apiKey != "" {
		opts = append(opts, coinpaprika.WithAPIKey(apiKey))
	}
	return &Coinpaprika{
		client: coinpaprika.NewClient(httpClient, opts...),
		coinID: coinID,
		quote:  quote,
	}
}

// Sample fetches the current ticker plus the oldest historical sample of the
// trailing 24 hours as the reference price. When the historical endpoint is
// unavailable the reference is derived from the 24h percent change instead.
func (c *Coinpaprika) Sample(ctx context.Context) (Quote, error) {
	t, err := c.client.Tickers.GetByID(c.coinID, &coinpaprika.TickersOptions{Quotes: c.quote})
	if err != nil {
		return Quote{}, errors.Wrap(err, "could not fetch ticker")
	}
	q, ok := t.Quotes[c.quote]
	if !ok || q.Price == nil {
		return Quote{}, errors.Errorf("ticker %s has no %s quote", c.coinID, c.quote)
	}
	current := *q.Price

	reference, err := c.referencePrice(current, q.PercentChange24h)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Price:        current,
		Reference24h: reference,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

func (c *Coinpaprika) referencePrice(current float64, change24h *float64) (float64, error) {
	historical, err := c.client.Tickers.GetHistoricalTickersByID(c.coinID, &coinpaprika.TickersHistoricalOptions{
		Quote:    c.quote,
		Interval: "1h",
		Start:    time.Now().Add(-24 * time.Hour),
		Limit:    1,
	})
	if err == nil && len(historical) > 0 && historical[0].Price != nil {
		return *historical[0].Price, nil
	}
	if err != nil {
		log.Debugf("historical tickers unavailable, deriving reference from 24h change: %v", err)
	}
	if change24h == nil {
		return 0, errors.New("no 24h reference price available")
	}
	return current / (1 + *change24h/100), nil
}

// Stats maps the Coinpaprika ticker onto the stats snapshot.
func (c *Coinpaprika) Stats(ctx context.Context) (*Stats, error) {
	t, err := c.client.Tickers.GetByID(c.coinID, &coinpaprika.TickersOptions{Quotes: c.quote})
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch ticker")
	}
	q, ok := t.Quotes[c.quote]
	if !ok || q.Price == nil {
		return nil, errors.Errorf("ticker %s has no %s quote", c.coinID, c.quote)
	}

	stats := &Stats{Price: *q.Price}
	if t.Rank != nil {
		stats.Rank = int(*t.Rank)
	}
	if q.MarketCap != nil {
		stats.MarketCap = float64(*q.MarketCap)
	}
	if t.CirculatingSupply != nil {
		stats.CirculatingSupply = float64(*t.CirculatingSupply)
	}
	if t.TotalSupply != nil {
		stats.TotalSupply = float64(*t.TotalSupply)
		stats.HasTotalSupply = true
	}
	if q.Volume24h != nil {
		stats.Volume24h = float64(*q.Volume24h)
	}
	if q.ATHPrice != nil {
		stats.ATH.Price = *q.ATHPrice
		if q.ATHDate != nil {
			stats.ATH.Date = parseISODate(*q.ATHDate)
		}
		if q.PercentFromPriceATH != nil {
			stats.ATH.ChangePct = *q.PercentFromPriceATH
		}
	}
	return stats, nil
}
