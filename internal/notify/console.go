// Package notify renders relay feedback outside the interactive UI.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mmcdole/kinorelay/internal/domain"
	"github.com/mmcdole/kinorelay/internal/tui/styles"
)

// Console writes one styled line per notification. Safe for concurrent use.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Display implements domain.FeedbackSink
func (c *Console) Display(text string, severity domain.Severity) {
	// multi-line texts (e.g. "message:\npath") are indented under the marker
	text = strings.ReplaceAll(text, "\n", "\n  ")

	var line string
	if severity == domain.SeverityError {
		line = styles.ErrorStyle.Render(styles.ErrorChar + " " + text)
	} else {
		line = styles.SuccessStyle.Render(styles.NoticeChar + " " + text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}
