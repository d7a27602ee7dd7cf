package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

type snapshotMsg store.Snapshot

type streamClosedMsg struct{}

type refreshDoneMsg struct{ err error }

type routeDoneMsg struct{ err error }

func waitForSnapshot(ch <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func refreshCmd(s Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return refreshDoneMsg{err: s.Refresh(ctx)}
	}
}

func directionsCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		done, err := s.SelectAnnotation(context.Background())
		if err != nil {
			return routeDoneMsg{err: err}
		}
		<-done
		return routeDoneMsg{}
	}
}
