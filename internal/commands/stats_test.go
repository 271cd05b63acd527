package commands

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
)

type fakeSource struct {
	stats *market.Stats
	quote market.Quote
	err   error
}

func (f *fakeSource) Sample(ctx context.Context) (market.Quote, error) {
	if f.err != nil {
		return market.Quote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeSource) Stats(ctx context.Context) (*market.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func fullStats() *market.Stats {
	return &market.Stats{
		Rank:              1,
		Price:             64250.12,
		MarketCap:         1.2e12,
		CirculatingSupply: 19700000,
		TotalSupply:       21000000,
		HasTotalSupply:    true,
		Volume24h:         3.5e10,
		ATH: market.PricePoint{
			Price:     69045,
			Date:      time.Date(2021, 11, 10, 14, 24, 11, 0, time.UTC),
			ChangePct: -6.95,
		},
		ATL: market.PricePoint{
			Price:     67.81,
			Date:      time.Date(2013, 7, 6, 0, 0, 0, 0, time.UTC),
			ChangePct: 94600.2,
		},
		HasATL: true,
	}
}

func TestStatsEmbed(t *testing.T) {
	config.InitConfig()
	source := &fakeSource{stats: fullStats(), quote: market.Quote{Price: 64250.12, Reference24h: 63000}}

	embed, err := Stats(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, embed.Fields, 6)
	assert.Equal(t, "#1", embed.Fields[0].Value)
	assert.Contains(t, embed.Fields[2].Value, "/", "circulating and total supply shown together")
	assert.Contains(t, embed.Fields[4].Value, "+", "rising 24h change keeps its sign")
}

func TestStatsSourceError(t *testing.T) {
	config.InitConfig()
	source := &fakeSource{err: errors.New("rate limited")}

	_, err := Stats(context.Background(), source)
	assert.Error(t, err)
}

func TestATHEmbed(t *testing.T) {
	config.InitConfig()
	source := &fakeSource{stats: fullStats()}

	embed, err := ATH(context.Background(), source)
	require.NoError(t, err)
	assert.Contains(t, embed.Title, "all-time high")
	assert.Contains(t, embed.Description, "2021-11-10 14:24")
	assert.Contains(t, embed.Description, "-6.95%")
}

func TestATLEmbed(t *testing.T) {
	config.InitConfig()
	source := &fakeSource{stats: fullStats()}

	embed, err := ATL(context.Background(), source)
	require.NoError(t, err)
	assert.Contains(t, embed.Title, "all-time low")
	assert.Contains(t, embed.Description, "2013-07-06", "midnight extreme shows the date only")
	assert.NotContains(t, embed.Description, "2013-07-06 00:00")
}

func TestATLWithoutBackendData(t *testing.T) {
	config.InitConfig()
	stats := fullStats()
	stats.HasATL = false
	source := &fakeSource{stats: stats}

	embed, err := ATL(context.Background(), source)
	require.NoError(t, err)
	assert.Contains(t, embed.Title, "doesn't report an all-time low")
}
