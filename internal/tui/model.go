// Package tui is a terminal renderer for the listing session: a feed list
// and a detail view with photos, map pin and directions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

// Session is what the terminal browser reads and drives.
type Session interface {
	Snapshot() store.Snapshot
	Subscribe() (<-chan store.Snapshot, func())
	Refresh(ctx context.Context) error
	TapRow(key string) (selection.State, error)
	Dismiss() selection.State
	SelectAnnotation(ctx context.Context) (<-chan struct{}, error)
	DeselectAnnotation()
}

type Model struct {
	sess        Session
	snaps       <-chan store.Snapshot
	unsubscribe func()

	snap      store.Snapshot
	spinner   spinner.Model
	cursor    int
	photo     int
	width     int
	height    int
	status    string
	statusErr bool
	timeout   time.Duration
}

func New(sess Session, refreshTimeout time.Duration) Model {
	if refreshTimeout <= 0 {
		refreshTimeout = 30 * time.Second
	}
	snaps, unsubscribe := sess.Subscribe()
	return Model{
		sess:        sess,
		snaps:       snaps,
		unsubscribe: unsubscribe,
		snap:        sess.Snapshot(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(mutedStyle)),
		timeout:     refreshTimeout,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snaps), m.spinner.Tick)
}

// Close ends the snapshot subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.apply(store.Snapshot(msg))
		return m, waitForSnapshot(m.snaps)
	case streamClosedMsg:
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case refreshDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Refresh failed: %v", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Loaded %d listings.", len(m.snap.Feed.Listings)))
		}
		return m, nil
	case routeDoneMsg:
		m.apply(m.sess.Snapshot())
		switch {
		case errors.Is(msg.err, mapview.ErrUnmappable):
			m.setError("No location for this listing.")
		case msg.err != nil:
			m.setError(fmt.Sprintf("Directions failed: %v", msg.err))
		case m.snap.Map.RoutingUnavailable:
			m.setError("Directions unavailable.")
		case m.snap.Map.Route != nil:
			m.setStatus("Route ready.")
		}
		return m, nil
	case tea.KeyMsg:
		if m.snap.Selection.DetailVisible() {
			return m.updateDetail(msg)
		}
		return m.updateFeed(msg)
	}
	return m, nil
}

func (m Model) updateFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.snap.Feed.Listings
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Top):
		m.cursor = 0
	case key.Matches(msg, keys.Bottom):
		m.cursor = max(len(rows)-1, 0)
	case key.Matches(msg, keys.Refresh):
		m.setStatus("Refreshing...")
		return m, refreshCmd(m.sess, m.timeout)
	case key.Matches(msg, keys.Open):
		if len(rows) == 0 {
			return m, nil
		}
		if _, err := m.sess.TapRow(rows[m.cursor].Key); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.photo = 0
		m.apply(m.sess.Snapshot())
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.sess.Dismiss()
		m.apply(m.sess.Snapshot())
	case key.Matches(msg, keys.PrevPhoto):
		if m.photo > 0 {
			m.photo--
		}
	case key.Matches(msg, keys.NextPhoto):
		if l, ok := m.current(); ok && m.photo < len(l.PhotoURLs())-1 {
			m.photo++
		}
	case key.Matches(msg, keys.Directions):
		m.setStatus("Requesting directions...")
		return m, directionsCmd(m.sess)
	case key.Matches(msg, keys.ClearRoute):
		m.sess.DeselectAnnotation()
		m.apply(m.sess.Snapshot())
		m.setStatus("Route cleared.")
	}
	return m, nil
}

// apply installs a snapshot and keeps the cursor on a valid row, following
// the selected listing when there is one.
func (m *Model) apply(snap store.Snapshot) {
	m.snap = snap
	rows := snap.Feed.Listings
	if key := snap.Selection.Key(); key != "" {
		if i, ok := listing.Index(rows)[key]; ok {
			m.cursor = i
		}
	}
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
}

// current is the listing behind the detail view.
func (m Model) current() (listing.Listing, bool) {
	return listing.Find(m.snap.Feed.Listings, m.snap.Selection.Key())
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}
