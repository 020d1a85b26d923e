package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rubiojr/gasprice/internal/geo"
	"github.com/rubiojr/gasprice/internal/notify"
	"github.com/rubiojr/gasprice/internal/session"
	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/rubiojr/gasprice/pkg/fuel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	token string
}

func (s *memStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memStore) ClearToken(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

type fakeAPI struct {
	mu          sync.Mutex
	calls       map[string]int
	records     []fuel.Record
	stations    []fuel.GasStation
	err         error
	submissions []api.Submission
	// gates, when set, block the n-th FuelPrices call until its gate
	// receives the records to return
	gates []chan []fuel.Record
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) FuelPrices(ctx context.Context, token string, filters api.Filters) ([]fuel.Record, error) {
	f.count("FuelPrices")
	if f.gates != nil {
		f.mu.Lock()
		gate := f.gates[f.calls["FuelPrices"]-1]
		f.mu.Unlock()
		return <-gate, nil
	}
	return f.records, f.err
}

func (f *fakeAPI) GasStations(ctx context.Context, token string) ([]fuel.GasStation, error) {
	f.count("GasStations")
	return f.stations, f.err
}

func (f *fakeAPI) Profile(ctx context.Context, token string) (*api.User, error) {
	f.count("Profile")
	if f.err != nil {
		return nil, f.err
	}
	return &api.User{ID: 1, Name: "Ana", Email: "ana@example.com"}, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, token string) error {
	f.count("DeleteUser")
	return f.err
}

func (f *fakeAPI) SubmitFuelPrice(ctx context.Context, token string, s api.Submission) error {
	f.count("SubmitFuelPrice")
	f.mu.Lock()
	f.submissions = append(f.submissions, s)
	f.mu.Unlock()
	return f.err
}

type fakeAuth struct{}

func (fakeAuth) Login(context.Context, api.LoginRequest) (string, error) { return "token", nil }
func (fakeAuth) Register(context.Context, api.RegisterRequest) (string, error) {
	return "token", nil
}
func (fakeAuth) ValidateToken(context.Context, string) (bool, error) { return true, nil }

type memSnapshots struct {
	mu      sync.Mutex
	saved   [][]fuel.Record
	last    []fuel.Record
	deleted int
	vacuums int
}

func (m *memSnapshots) SavePrices(_ context.Context, _ time.Time, records []fuel.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, records)
	m.last = records
	return nil
}

func (m *memSnapshots) GetLastPrices(context.Context) ([]fuel.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil, errors.New("no snapshot")
	}
	return m.last, nil
}

func (m *memSnapshots) GetLastUpdateDate(context.Context) (*time.Time, error) {
	return nil, nil
}

func (m *memSnapshots) DeleteOldRecords(context.Context, int) (int, error) {
	return m.deleted, nil
}

func (m *memSnapshots) VacuumDatabase(context.Context) error {
	m.vacuums++
	return nil
}

type fixture struct {
	app       *App
	api       *fakeAPI
	store     *memStore
	snapshots *memSnapshots
	notices   *notify.Recorder
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	f := &fixture{
		api:       &fakeAPI{},
		store:     &memStore{token: token},
		snapshots: &memSnapshots{},
		notices:   &notify.Recorder{},
	}
	gw := session.New(session.Config{
		Store:    f.store,
		Auth:     fakeAuth{},
		Locator:  geo.NewStaticLocator(-23.5, -46.6),
		Notifier: f.notices,
	})
	f.app = New(Config{
		Session:   gw,
		API:       f.api,
		Snapshots: f.snapshots,
		Notifier:  f.notices,
	})
	t.Cleanup(func() { f.app.Close() })
	return f
}

func (f *fixture) lastNotice(t *testing.T) notify.Notice {
	t.Helper()
	n, ok := f.notices.Last()
	require.True(t, ok, "expected a notice")
	return n
}

var sample = []fuel.Record{
	{ID: 1, FuelType: "1", Price: 5.89, GasStationID: 10},
	{ID: 2, FuelType: "4", Price: 3.99, GasStationID: 11},
}

func TestFetchFuelPrices(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample

	require.NoError(t, f.app.FetchFuelPrices(context.Background(), api.Filters{}))
	assert.Equal(t, sample, f.app.Store.Records())
	require.Len(t, f.snapshots.saved, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.app.Metrics.Records))
}

func TestFetchFuelPricesFilteredIsNotSnapshotted(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample[1:]

	require.NoError(t, f.app.FetchFuelPrices(context.Background(), api.Filters{FuelType: "4"}))
	assert.Len(t, f.app.Store.Records(), 1)
	assert.Empty(t, f.snapshots.saved)
}

func TestFetchFuelPricesWithoutToken(t *testing.T) {
	f := newFixture(t, "")

	err := f.app.FetchFuelPrices(context.Background(), api.Filters{})
	assert.ErrorIs(t, err, api.ErrAuthenticationMissing)
	assert.Equal(t, 0, f.api.Calls("FuelPrices"))
	assert.Equal(t, notify.LevelError, f.lastNotice(t).Level)
}

func TestFetchFuelPricesRejected(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample
	require.NoError(t, f.app.FetchFuelPrices(context.Background(), api.Filters{}))

	f.api.err = api.ErrAuthenticationRejected
	err := f.app.FetchFuelPrices(context.Background(), api.Filters{})
	assert.ErrorIs(t, err, api.ErrAuthenticationRejected)
	assert.Empty(t, f.store.token, "rejected token must be cleared")
	assert.Equal(t, sample, f.app.Store.Records())
}

func TestFetchFuelPricesNetworkFailureKeepsData(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample
	require.NoError(t, f.app.FetchFuelPrices(context.Background(), api.Filters{}))

	f.api.err = &api.NetworkError{Op: "fetching /fuel-prices", Err: errors.New("timeout")}
	err := f.app.FetchFuelPrices(context.Background(), api.Filters{})
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, sample, f.app.Store.Records())
	assert.Equal(t, "token", f.store.token)
	assert.Equal(t, notify.LevelError, f.lastNotice(t).Level)
}

func TestFetchFuelPricesFallsBackToSnapshot(t *testing.T) {
	f := newFixture(t, "token")
	f.snapshots.last = sample
	f.api.err = &api.NetworkError{Op: "fetching /fuel-prices", Err: errors.New("timeout")}

	err := f.app.FetchFuelPrices(context.Background(), api.Filters{})
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, sample, f.app.Store.Records())
	assert.Equal(t, notify.LevelInfo, f.lastNotice(t).Level)
}

func TestFetchFuelPricesStaleResponseDiscarded(t *testing.T) {
	f := newFixture(t, "token")
	f.api.gates = []chan []fuel.Record{make(chan []fuel.Record), make(chan []fuel.Record)}
	ctx := context.Background()

	firstDone := make(chan error)
	go func() {
		firstDone <- f.app.FetchFuelPrices(ctx, api.Filters{})
	}()
	require.Eventually(t, func() bool { return f.api.Calls("FuelPrices") == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan error)
	go func() {
		secondDone <- f.app.FetchFuelPrices(ctx, api.Filters{})
	}()
	require.Eventually(t, func() bool { return f.api.Calls("FuelPrices") == 2 }, time.Second, time.Millisecond)

	// the second request completes first
	f.api.gates[1] <- sample
	require.NoError(t, <-secondDone)
	f.api.gates[0] <- sample[:1]
	require.NoError(t, <-firstDone)

	assert.Equal(t, sample, f.app.Store.Records())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.app.Metrics.StaleDiscards))
	assert.Len(t, f.snapshots.saved, 1)
}

func TestStoreSequenceGating(t *testing.T) {
	f := newFixture(t, "token")
	s := f.app.Store

	first := s.Begin()
	second := s.Begin()
	assert.True(t, s.Apply(second, sample))
	assert.False(t, s.Apply(first, sample[:1]))
	assert.Equal(t, sample, s.Records())
}

func TestSubmitFuelPrice(t *testing.T) {
	f := newFixture(t, "token")
	events, cancel := f.app.Subscribe()
	defer cancel()

	err := f.app.SubmitFuelPrice(context.Background(), PriceForm{
		FuelType: "7", Price: "6,09", GasStationName: " Posto Sol ", Address: "Rua A, 1",
	})
	require.NoError(t, err)
	require.Len(t, f.api.submissions, 1)
	assert.Equal(t, api.Submission{FuelType: "7", Price: 6.09, GasStationName: "Posto Sol", Address: "Rua A, 1"}, f.api.submissions[0])
	assert.Equal(t, notify.LevelSuccess, f.lastNotice(t).Level)

	select {
	case ev := <-events:
		assert.Equal(t, uint64(1), ev.Seq)
	case <-time.After(time.Second):
		t.Fatal("expected a refresh event")
	}
}

func TestSubmitFuelPriceValidation(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()

	err := f.app.SubmitFuelPrice(ctx, PriceForm{FuelType: "1", Price: "5.99", GasStationName: "Posto"})
	assert.ErrorIs(t, err, ErrMissingFields)

	err = f.app.SubmitFuelPrice(ctx, PriceForm{FuelType: "1", Price: "0", GasStationName: "Posto", Address: "Rua A"})
	assert.ErrorIs(t, err, fuel.ErrInvalidPrice)

	err = f.app.SubmitFuelPrice(ctx, PriceForm{FuelType: "1", Price: "abc", GasStationName: "Posto", Address: "Rua A"})
	assert.ErrorIs(t, err, fuel.ErrInvalidPrice)

	assert.Equal(t, 0, f.api.Calls("SubmitFuelPrice"))
	assert.Equal(t, uint64(0), f.app.RefreshSeq())
}

func TestSubmitFuelPriceWithoutToken(t *testing.T) {
	f := newFixture(t, "")

	err := f.app.SubmitFuelPrice(context.Background(), PriceForm{FuelType: "1", Price: "5.99", GasStationName: "Posto", Address: "Rua A"})
	assert.ErrorIs(t, err, api.ErrAuthenticationMissing)
	assert.Equal(t, 0, f.api.Calls("SubmitFuelPrice"))
}

func TestRefreshNeverBlocks(t *testing.T) {
	f := newFixture(t, "token")
	events, cancel := f.app.Subscribe()
	defer cancel()

	for i := 0; i < 10; i++ {
		f.app.Refresh()
	}
	assert.Equal(t, uint64(10), f.app.RefreshSeq())

	ev := <-events
	assert.Equal(t, uint64(10), ev.Seq, "slow subscribers see the latest event")
	assert.Equal(t, 10.0, testutil.ToFloat64(f.app.Metrics.Refreshes))
}

func TestSubscribeCancelAndClose(t *testing.T) {
	f := newFixture(t, "token")

	events, cancel := f.app.Subscribe()
	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok)

	events, _ = f.app.Subscribe()
	require.NoError(t, f.app.Close())
	_, ok = <-events
	assert.False(t, ok)

	events, _ = f.app.Subscribe()
	_, ok = <-events
	assert.False(t, ok)
}

func TestWatchRefresh(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := f.app.WatchRefresh(ctx, api.Filters{})
	require.Eventually(t, func() bool {
		f.app.Refresh()
		return f.api.Calls("FuelPrices") > 0
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return f.app.Store.Len() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchRefresh_FirstEventNotLost(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t, "token")
		f.api.records = sample
		ctx, cancel := context.WithCancel(context.Background())

		// Same order as the server startup: start watching, then refresh
		// right away from another goroutine.
		done := f.app.WatchRefresh(ctx, api.Filters{})
		go f.app.Refresh()

		require.Eventually(t, func() bool { return f.app.Store.Len() == 2 }, time.Second, time.Millisecond)
		assert.Equal(t, 1, f.api.Calls("FuelPrices"))

		cancel()
		<-done
	}
}

func TestGasStationsCached(t *testing.T) {
	f := newFixture(t, "token")
	f.api.stations = []fuel.GasStation{
		{ID: 1, Name: "Posto Sol", Address: "Rua A"},
		{ID: 2, Name: " posto sol", Address: "rua a "},
		{ID: 3, Name: "Posto Lua", Address: "Rua B"},
	}
	ctx := context.Background()

	stations, err := f.app.GasStations(ctx)
	require.NoError(t, err)
	assert.Len(t, stations, 2)

	_, err = f.app.GasStations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.Calls("GasStations"))
}

func TestUserProfile(t *testing.T) {
	f := newFixture(t, "token")

	user, err := f.app.UserProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	f.api.err = &api.StatusError{StatusCode: 500}
	_, err = f.app.UserProfile(context.Background())
	assert.Error(t, err)
	assert.Equal(t, notify.LevelError, f.lastNotice(t).Level)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t, "token")
	f.api.records = sample
	ctx := context.Background()
	require.NoError(t, f.app.FetchFuelPrices(ctx, api.Filters{}))
	_, err := f.app.Session.FetchLocation(ctx)
	require.NoError(t, err)

	require.NoError(t, f.app.DeleteAccount(ctx))
	assert.Equal(t, 1, f.api.Calls("DeleteUser"))
	assert.Empty(t, f.store.token)
	assert.Zero(t, f.app.Store.Len())
	assert.False(t, f.app.Session.Location().HasCoordinates())
}

func TestDeleteAccountFailure(t *testing.T) {
	f := newFixture(t, "token")
	f.api.err = &api.StatusError{StatusCode: 500}

	assert.Error(t, f.app.DeleteAccount(context.Background()))
	assert.Equal(t, "token", f.store.token)
	assert.Equal(t, f.app.Translations().AccountDeleteError, f.lastNotice(t).Text)
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.app.Login(ctx, "ana@example.com", "secret"))
	assert.Equal(t, "token", f.store.token)

	f.api.records = sample
	require.NoError(t, f.app.FetchFuelPrices(ctx, api.Filters{}))

	require.NoError(t, f.app.Logout(ctx))
	assert.Empty(t, f.store.token)
	assert.Zero(t, f.app.Store.Len())
	assert.Equal(t, f.app.Translations().LoggedOut, f.lastNotice(t).Text)
}

func TestPrune(t *testing.T) {
	f := newFixture(t, "token")
	f.snapshots.deleted = 3

	n, err := f.app.Prune(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, f.snapshots.vacuums)
}
