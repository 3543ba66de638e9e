package domain

// Severity controls how a feedback message is rendered
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "normal"
}

// FeedbackSink renders a transient message to the user.
type FeedbackSink interface {
	Display(text string, severity Severity)
}
