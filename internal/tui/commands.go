package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/kinorelay/internal/service"
)

const playTimeout = 60 * time.Second

// player starts a play flow for an item resolved at key press
type player interface {
	OnUserActionFor(ctx context.Context, itemID string) service.Flow
}

// PlayCmd runs one play flow for itemID off the update loop
func PlayCmd(p player, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()

		return PlayFinishedMsg{Flow: p.OnUserActionFor(ctx, itemID)}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

// TickCmd schedules the next spinner frame
func TickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
