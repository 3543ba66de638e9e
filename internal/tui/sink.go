package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/kinorelay/internal/domain"
)

// ProgramSink delivers feedback into a running bubbletea program.
// Messages displayed before Attach are dropped.
type ProgramSink struct {
	program atomic.Pointer[tea.Program]
}

// Attach binds the sink to p
func (s *ProgramSink) Attach(p *tea.Program) {
	s.program.Store(p)
}

// Display implements domain.FeedbackSink
func (s *ProgramSink) Display(text string, severity domain.Severity) {
	p := s.program.Load()
	if p == nil {
		return
	}
	p.Send(StatusMsg{Message: text, IsError: severity == domain.SeverityError})
}
