package tui

import "github.com/mmcdole/kinorelay/internal/service"

// Message types for the TUI

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status line if it still shows status seq
type ClearStatusMsg struct {
	Seq int
}

// PlayFinishedMsg signals that a play flow has left the relay
type PlayFinishedMsg struct {
	Flow service.Flow
}

// TickMsg advances the spinner while flows are in flight
type TickMsg struct{}
