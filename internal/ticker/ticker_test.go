package ticker

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudonimous/discord-static-price-ticker/internal/database"
	"github.com/pseudonimous/discord-static-price-ticker/internal/market"
	"github.com/pseudonimous/discord-static-price-ticker/internal/types"
)

type fakeSource struct {
	quotes []market.Quote
	errs   []error
	calls  int
}

func (f *fakeSource) Sample(ctx context.Context) (market.Quote, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return market.Quote{}, f.errs[i]
	}
	return f.quotes[i], nil
}

func (f *fakeSource) Stats(ctx context.Context) (*market.Stats, error) {
	return nil, errors.New("not implemented")
}

type delivery struct {
	target string
	n      Notification
}

type fakeNotifier struct {
	users        []delivery
	channels     []delivery
	fail         bool
	unresolvable bool
}

func (f *fakeNotifier) NotifyUser(userID string, n Notification) error {
	if f.unresolvable {
		return errors.Wrapf(ErrUnresolvable, "no DM channel for user %s", userID)
	}
	f.users = append(f.users, delivery{userID, n})
	if f.fail {
		return errors.New("delivery rejected")
	}
	return nil
}

func (f *fakeNotifier) NotifyChannel(channelID string, n Notification) error {
	if f.unresolvable {
		return errors.Wrapf(ErrUnresolvable, "no channel %s", channelID)
	}
	f.channels = append(f.channels, delivery{channelID, n})
	if f.fail {
		return errors.New("delivery rejected")
	}
	return nil
}

type fakePresence struct {
	labels []string
	moods  []Mood
}

func (f *fakePresence) Update(label string, mood Mood, status string) {
	f.labels = append(f.labels, label)
	f.moods = append(f.moods, mood)
}

func quote(price, reference float64) market.Quote {
	return market.Quote{Price: price, Reference24h: reference, FetchedAt: time.Now()}
}

func newTestTicker(t *testing.T, source market.Source, notifier Notifier, presence PresenceSink) (*Ticker, *database.Store) {
	t.Helper()
	store, err := database.New(":memory:", 10, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := Config{
		Interval:          5 * time.Second,
		CryptoName:        "Bitcoin",
		FiatName:          "$",
		PresencePrecision: 0,
	}
	return New(cfg, store, source, presence, notifier, nil), store
}

func TestFirstCycleSkipsEvaluationButRecordsPrevious(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98)}}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 100, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background())

	assert.Empty(t, notifier.users, "no alert may fire on the first sample")
	alerts, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "alert must survive the first cycle")
	assert.True(t, tick.hasPrev)
	assert.Equal(t, 100.0, tick.prev)
}

func TestCrossingFiresOnceAndRemovesAlert(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98), quote(105, 98), quote(110, 98)}}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	created := time.Now().UTC().Unix()
	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 102, CreatedAt: created}))

	tick.Tick(context.Background()) // previous = 100
	tick.Tick(context.Background()) // 100 -> 105 crosses 102
	tick.Tick(context.Background()) // 105 -> 110, alert already consumed

	require.Len(t, notifier.users, 1, "exactly one notification")
	d := notifier.users[0]
	assert.Equal(t, "u1", d.target)
	assert.Equal(t, 102.0, d.n.Threshold)
	assert.Equal(t, 105.0, d.n.CurrentPrice)
	assert.Equal(t, 100.0, d.n.PreviousPrice)
	assert.False(t, d.n.MovedDown())

	alerts, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Empty(t, alerts, "fired alert must be removed")
}

func TestFallingCrossingFires(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(110, 98), quote(101, 98)}}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 105, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background())
	tick.Tick(context.Background())

	require.Len(t, notifier.users, 1)
	assert.True(t, notifier.users[0].n.MovedDown())
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	source := &fakeSource{
		quotes: []market.Quote{quote(100, 98), {}, quote(105, 98)},
		errs:   []error{nil, errors.New("rate limited"), nil},
	}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 102, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background()) // previous = 100
	tick.Tick(context.Background()) // fetch fails, nothing changes
	assert.Equal(t, 100.0, tick.prev, "failed cycle must not move previous price")
	alerts, _ := store.ListPersonal("u1")
	assert.Len(t, alerts, 1, "failed cycle must not remove alerts")

	tick.Tick(context.Background()) // 100 -> 105 crosses 102
	assert.Len(t, notifier.users, 1)
}

func TestDeliveryFailureStillConsumesAlert(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98), quote(105, 98)}}
	notifier := &fakeNotifier{fail: true}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 102, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background())
	tick.Tick(context.Background())

	alerts, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Empty(t, alerts, "crossed alert is consumed even when delivery fails")
}

func TestUnresolvableTargetKeepsAlert(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98), quote(105, 98), quote(100, 98)}}
	notifier := &fakeNotifier{unresolvable: true}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "u1", Price: 102, CreatedAt: time.Now().Unix()}))
	require.NoError(t, store.AddChannel(types.ChannelAlert{ChannelID: "c1", InvokerID: "u1", Price: 102, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background()) // previous = 100
	tick.Tick(context.Background()) // 100 -> 105 crosses, targets unresolvable

	assert.Empty(t, notifier.users)
	assert.Empty(t, notifier.channels)
	personal, err := store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Len(t, personal, 1, "alert must survive an unresolvable owner")
	channel, err := store.ListChannel("c1")
	require.NoError(t, err)
	assert.Len(t, channel, 1, "alert must survive an unresolvable channel")

	notifier.unresolvable = false
	tick.Tick(context.Background()) // 105 -> 100 crosses again, now deliverable

	assert.Len(t, notifier.users, 1, "kept alert fires once the owner resolves")
	assert.Len(t, notifier.channels, 1)
	personal, err = store.ListPersonal("u1")
	require.NoError(t, err)
	assert.Empty(t, personal)
}

func TestChannelAlertsEvaluatedIndependently(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98), quote(105, 98)}}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddChannel(types.ChannelAlert{ChannelID: "c1", InvokerID: "u1", Price: 103, CreatedAt: time.Now().Unix()}))
	require.NoError(t, store.AddChannel(types.ChannelAlert{ChannelID: "c2", InvokerID: "u2", Price: 200, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background())
	tick.Tick(context.Background())

	require.Len(t, notifier.channels, 1)
	assert.Equal(t, "c1", notifier.channels[0].target)
	assert.Equal(t, "u1", notifier.channels[0].n.CreatorID)

	remaining, err := store.ListChannel("c2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "uncrossed alert must remain")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, MoodUp, Classify(2.01))
	assert.Equal(t, MoodNeutral, Classify(2.0))
	assert.Equal(t, MoodNeutral, Classify(0))
	assert.Equal(t, MoodNeutral, Classify(-2.0))
	assert.Equal(t, MoodDown, Classify(-2.01))
}

func TestPresenceUpdatedEveryCycle(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 90), quote(80, 90)}}
	presence := &fakePresence{}
	tick, _ := newTestTicker(t, source, &fakeNotifier{}, presence)

	tick.Tick(context.Background())
	tick.Tick(context.Background())

	require.Len(t, presence.labels, 2)
	assert.Equal(t, "Bitcoin: $100", presence.labels[0])
	assert.Equal(t, MoodUp, presence.moods[0])
	assert.Equal(t, MoodDown, presence.moods[1])
}

func TestRunWaitsForReadinessGate(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98)}}
	tick, _ := newTestTicker(t, source, &fakeNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})
	go func() {
		tick.Run(ctx, ready)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, source.calls, "no tick before the readiness gate opens")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
	assert.Equal(t, 0, source.calls)
}

func TestEndToEndPersonalAlert(t *testing.T) {
	source := &fakeSource{quotes: []market.Quote{quote(100, 98), quote(105, 98)}}
	notifier := &fakeNotifier{}
	tick, store := newTestTicker(t, source, notifier, nil)

	require.NoError(t, store.AddPersonal(types.PersonalAlert{InvokerID: "U", Price: 102, CreatedAt: time.Now().Unix()}))

	tick.Tick(context.Background())
	tick.Tick(context.Background())

	require.Len(t, notifier.users, 1, "U receives exactly one notification")
	assert.Equal(t, "U", notifier.users[0].target)

	alerts, err := store.ListPersonal("U")
	require.NoError(t, err)
	assert.Empty(t, alerts, "store must be empty for U afterward")
}
