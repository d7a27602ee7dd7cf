package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

type fakeSession struct {
	snap       store.Snapshot
	snaps      chan store.Snapshot
	refreshErr error
	refreshes  int
	dismissed  int
	deselected int
	route      *mapview.Route
}

func newFake(ls ...listing.Listing) *fakeSession {
	f := &fakeSession{snaps: make(chan store.Snapshot, 1)}
	f.snap.Feed.Listings = ls
	return f
}

func (f *fakeSession) Snapshot() store.Snapshot { return f.snap }

func (f *fakeSession) Subscribe() (<-chan store.Snapshot, func()) { return f.snaps, func() {} }

func (f *fakeSession) Refresh(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeSession) TapRow(key string) (selection.State, error) {
	if _, ok := listing.Find(f.snap.Feed.Listings, key); !ok {
		return f.snap.Selection, mapview.ErrUnknownListing
	}
	f.snap.Selection = f.snap.Selection.TapRow(key)
	return f.snap.Selection, nil
}

func (f *fakeSession) Dismiss() selection.State {
	f.dismissed++
	f.snap.Selection = f.snap.Selection.Dismiss()
	return f.snap.Selection
}

func (f *fakeSession) SelectAnnotation(context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})
	f.snap.Map.Route = f.route
	f.snap.Map.RoutingUnavailable = f.route == nil
	close(done)
	return done, nil
}

func (f *fakeSession) DeselectAnnotation() {
	f.deselected++
	f.snap.Map.Route = nil
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func sample() []listing.Listing {
	price := 450000.0
	beds := 3
	return []listing.Listing{
		{Key: "A", Address: "1 Main St", Price: &price, Bedrooms: &beds, Status: "Active",
			Coordinate: &orb.Point{-97.7, 30.3},
			Media:      []listing.Media{{Key: "m1", URL: "https://img/1.jpg"}, {Key: "m2", URL: "https://img/2.jpg"}}},
		{Key: "B", Address: "2 Oak Ave", Status: "Pending"},
	}
}

func TestFeedViewListsRows(t *testing.T) {
	m := New(newFake(sample()...), 0)
	out := m.View()
	assert.Contains(t, out, "Listings (2)")
	assert.Contains(t, out, "1 Main St")
	assert.Contains(t, out, "$450,000")
	assert.Contains(t, out, "Price n/a")
}

func TestCursorMovementClamps(t *testing.T) {
	m := New(newFake(sample()...), 0)
	m, _ = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)
	m, _ = press(t, m, "j", "j", "j")
	assert.Equal(t, 1, m.cursor)
	m, _ = press(t, m, "k")
	assert.Equal(t, 0, m.cursor)
}

func TestEnterOpensDetailAndEscReturns(t *testing.T) {
	f := newFake(sample()...)
	m := New(f, 0)

	m, _ = press(t, m, "down", "enter")
	require.True(t, m.snap.Selection.DetailVisible())
	assert.Equal(t, "B", m.snap.Selection.Key())
	assert.Contains(t, m.View(), "2 Oak Ave")

	m, _ = press(t, m, "esc")
	assert.False(t, m.snap.Selection.DetailVisible())
	assert.Equal(t, 1, f.dismissed)
	assert.Equal(t, "B", m.snap.Selection.Key(), "key retained after dismiss")
	assert.Equal(t, 1, m.cursor)
}

func TestPhotoCarouselBounds(t *testing.T) {
	m := New(newFake(sample()...), 0)
	m, _ = press(t, m, "enter")
	assert.Contains(t, m.View(), "[1/2] https://img/1.jpg")

	m, _ = press(t, m, "l", "l", "l")
	assert.Equal(t, 1, m.photo)
	assert.Contains(t, m.View(), "[2/2] https://img/2.jpg")

	m, _ = press(t, m, "h", "h")
	assert.Equal(t, 0, m.photo)
}

func TestRefreshCommandReportsFailure(t *testing.T) {
	f := newFake(sample()...)
	f.refreshErr = errors.New("boom")
	m := New(f, 0)

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, refreshDoneMsg{}, msg)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, 1, f.refreshes)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "Refresh failed: boom")
}

func TestDirectionsShowsRouteThenClears(t *testing.T) {
	f := newFake(sample()...)
	path := orb.LineString{{-97.7, 30.2}, {-97.7, 30.3}}
	f.route = &mapview.Route{Path: path, Distance: 12300}
	f.snap.Map.Annotation = &mapview.Annotation{ListingKey: "A", Coordinate: orb.Point{-97.7, 30.3}}
	m := New(f, 0)

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "d")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Route ready.", m.status)
	assert.Contains(t, m.View(), "Route 12.3 km")

	m, _ = press(t, m, "x")
	assert.Equal(t, 1, f.deselected)
	assert.Nil(t, m.snap.Map.Route)
}

func TestDirectionsUnavailable(t *testing.T) {
	f := newFake(sample()...)
	f.snap.Map.Annotation = &mapview.Annotation{ListingKey: "A"}
	m := New(f, 0)

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "d")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "Directions unavailable")
}

func TestSnapshotMessageFollowsSelection(t *testing.T) {
	f := newFake(sample()...)
	m := New(f, 0)

	snap := f.snap
	snap.Feed.Listings = []listing.Listing{sample()[1]}
	next, cmd := m.Update(snapshotMsg(snap))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Listings (1)")
}

func TestQuit(t *testing.T) {
	m := New(newFake(), 0)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
