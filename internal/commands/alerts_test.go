package commands

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudonimous/discord-static-price-ticker/config"
	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	config.InitConfig()
	store, err := database.New(":memory:", 2, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddPersonalSuccess(t *testing.T) {
	store := newTestStore(t)

	embed := AddPersonal(store, "u1", 64000)
	assert.True(t, strings.HasPrefix(embed.Title, "✅"), "title = %q", embed.Title)
	require.NotNil(t, embed.Footer)
	assert.Contains(t, embed.Footer.Text, "DMs open")

	alerts, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestAddPersonalRejectsBadThresholds(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name  string
		price float64
		want  string
	}{
		{"nan", math.NaN(), "existing numbers"},
		{"positive infinity", math.Inf(1), "not to infinity"},
		{"negative infinity", math.Inf(-1), "not to infinity"},
		{"negative", -5, "lower than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := AddPersonal(store, "u1", tt.price)
			assert.True(t, strings.HasPrefix(embed.Title, "⛔"), "title = %q", embed.Title)
			assert.Contains(t, embed.Title, tt.want)
		})
	}

	alerts, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Empty(t, alerts, "rejected thresholds must not be stored")
}

func TestAddPersonalDuplicateAndLimit(t *testing.T) {
	store := newTestStore(t)

	AddPersonal(store, "u1", 100)
	dup := AddPersonal(store, "u1", 100)
	assert.Contains(t, dup.Title, "already have")

	AddPersonal(store, "u1", 200)
	over := AddPersonal(store, "u1", 300)
	assert.Contains(t, over.Title, "limit")

	count, err := store.CountPersonal("u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListPersonalEmpty(t *testing.T) {
	store := newTestStore(t)

	embed := ListPersonal(store, "u1", "somebody")
	assert.Contains(t, embed.Title, "no personal price alerts")
}

func TestListPersonalShowsAlerts(t *testing.T) {
	store := newTestStore(t)

	AddPersonal(store, "u1", 100)
	AddPersonal(store, "u1", 250.5)

	embed := ListPersonal(store, "u1", "somebody")
	assert.Contains(t, embed.Title, "somebody")
	require.Len(t, embed.Fields, 2)
	assert.Contains(t, embed.Fields[0].Name, "$")
}

func TestRemovePersonal(t *testing.T) {
	store := newTestStore(t)

	AddPersonal(store, "u1", 100)
	removed := RemovePersonal(store, "u1", 100)
	assert.True(t, strings.HasPrefix(removed.Title, "🗑️"), "title = %q", removed.Title)

	missing := RemovePersonal(store, "u1", 100)
	assert.True(t, strings.HasPrefix(missing.Title, "⛔"), "title = %q", missing.Title)
}

func TestChannelAlertRoundTrip(t *testing.T) {
	store := newTestStore(t)

	added := AddChannel(store, "c1", "u1", 500)
	assert.True(t, strings.HasPrefix(added.Title, "✅"), "title = %q", added.Title)
	assert.Nil(t, added.Footer, "channel alerts carry no DM footer")

	listed := ListChannel(store, "c1", "general")
	assert.Contains(t, listed.Title, "#general")
	require.Len(t, listed.Fields, 1)
	assert.Contains(t, listed.Fields[0].Value, "<@u1>")

	removed := RemoveChannel(store, "c1", 500)
	assert.True(t, strings.HasPrefix(removed.Title, "🗑️"), "title = %q", removed.Title)

	empty := ListChannel(store, "c1", "general")
	assert.Contains(t, empty.Title, "no channel price alerts")
}

func TestChannelDuplicateScopedToChannel(t *testing.T) {
	store := newTestStore(t)

	AddChannel(store, "c1", "u1", 500)
	dup := AddChannel(store, "c1", "u2", 500)
	assert.Contains(t, dup.Title, "already a channel price alert")

	other := AddChannel(store, "c2", "u2", 500)
	assert.True(t, strings.HasPrefix(other.Title, "✅"), "same threshold in another channel is fine")
}
