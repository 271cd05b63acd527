package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko talks to the public CoinGecko REST API for a single configured
// coin/fiat pair.
type CoinGecko struct {
	baseURL  string
	cryptoID string
	fiatID   string
	client   *http.Client
}

// NewCoinGecko builds a CoinGecko source. baseURL may be empty to use the
// public API; timeout bounds every request.
func NewCoinGecko(baseURL, cryptoID, fiatID string, timeout time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{
		baseURL:  baseURL,
		cryptoID: cryptoID,
		fiatID:   fiatID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *CoinGecko) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "could not decode response from %s", path)
	}
	return nil
}

// Sample fetches the current price and the first sample of the trailing 24h
// market chart, which serves as the 24h reference price.
func (c *CoinGecko) Sample(ctx context.Context) (Quote, error) {
	var prices map[string]map[string]float64
	q := url.Values{}
	q.Set("ids", c.cryptoID)
	q.Set("vs_currencies", c.fiatID)
	if err := c.getJSON(ctx, "/simple/price", q, &prices); err != nil {
		return Quote{}, err
	}
	current, ok := prices[c.cryptoID][c.fiatID]
	if !ok {
		return Quote{}, errors.Errorf("no price for %s/%s in response", c.cryptoID, c.fiatID)
	}

	var chart struct {
		Prices [][2]float64 `json:"prices"`
	}
	q = url.Values{}
	q.Set("vs_currency", c.fiatID)
	q.Set("days", "1")
	if err := c.getJSON(ctx, "/coins/"+c.cryptoID+"/market_chart", q, &chart); err != nil {
		return Quote{}, err
	}
	if len(chart.Prices) == 0 {
		return Quote{}, errors.Errorf("empty 24h market chart for %s", c.cryptoID)
	}

	log.Debugf("sampled %s: current=%f reference=%f", c.cryptoID, current, chart.Prices[0][1])
	return Quote{
		Price:        current,
		Reference24h: chart.Prices[0][1],
		FetchedAt:    time.Now().UTC(),
	}, nil
}

type geckoMarket struct {
	CurrentPrice      float64  `json:"current_price"`
	MarketCap         float64  `json:"market_cap"`
	MarketCapRank     int      `json:"market_cap_rank"`
	CirculatingSupply float64  `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	TotalVolume       float64  `json:"total_volume"`
	ATH               float64  `json:"ath"`
	ATHChangePct      float64  `json:"ath_change_percentage"`
	ATHDate           string   `json:"ath_date"`
	ATL               float64  `json:"atl"`
	ATLChangePct      float64  `json:"atl_change_percentage"`
	ATLDate           string   `json:"atl_date"`
}

// Stats fetches the coins/markets row for the configured coin.
func (c *CoinGecko) Stats(ctx context.Context) (*Stats, error) {
	var markets []geckoMarket
	q := url.Values{}
	q.Set("vs_currency", c.fiatID)
	q.Set("ids", c.cryptoID)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", "100")
	q.Set("page", "1")
	q.Set("sparkline", "false")
	if err := c.getJSON(ctx, "/coins/markets", q, &markets); err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, errors.Errorf("no market data for %s", c.cryptoID)
	}
	m := markets[0]

	stats := &Stats{
		Rank:              m.MarketCapRank,
		Price:             m.CurrentPrice,
		MarketCap:         m.MarketCap,
		CirculatingSupply: m.CirculatingSupply,
		Volume24h:         m.TotalVolume,
		ATH: PricePoint{
			Price:     m.ATH,
			Date:      parseISODate(m.ATHDate),
			ChangePct: m.ATHChangePct,
		},
		ATL: PricePoint{
			Price:     m.ATL,
			Date:      parseISODate(m.ATLDate),
			ChangePct: m.ATLChangePct,
		},
		HasATL: true,
	}
	if m.TotalSupply != nil {
		stats.TotalSupply = *m.TotalSupply
		stats.HasTotalSupply = true
	}
	return stats, nil
}

func parseISODate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Debugf("could not parse date %q: %v", s, err)
		return time.Time{}
	}
	return t.UTC()
}
