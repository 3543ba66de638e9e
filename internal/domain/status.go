package domain

import (
	"encoding/json"
	"strconv"
)

// Status values reported by the playback host
const (
	StatusError   = "error"
	StatusSuccess = "success"
)

// StatusMessage is an inbound report from the playback host. Messages are
// matched purely on shape: nothing ties a status to the request that caused it.
type StatusMessage struct {
	Status          string
	Message         string
	FilePath        string
	Title           string
	ID              string
	MarkItemsPlayed bool
}

// ParseStatusMessage decodes an inbound frame. ok is false for anything that
// is not a JSON object; callers treat such frames as belonging to someone else.
func ParseStatusMessage(raw []byte) (msg StatusMessage, ok bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return StatusMessage{}, false
	}

	return StatusMessage{
		Status:          stringField(fields["status"]),
		Message:         stringField(fields["message"]),
		FilePath:        stringField(fields["filePath"]),
		Title:           stringField(fields["title"]),
		ID:              stringField(fields["id"]),
		MarkItemsPlayed: truthy(fields["markItemsPlayed"]),
	}, true
}

// MarshalJSON emits only the fields that belong to the message's status.
func (m StatusMessage) MarshalJSON() ([]byte, error) {
	switch m.Status {
	case StatusError:
		return json.Marshal(struct {
			Status   string `json:"status"`
			Message  string `json:"message"`
			FilePath string `json:"filePath"`
		}{m.Status, m.Message, m.FilePath})
	case StatusSuccess:
		return json.Marshal(struct {
			Status          string `json:"status"`
			Message         string `json:"message"`
			Title           string `json:"title"`
			ID              string `json:"id,omitempty"`
			MarkItemsPlayed bool   `json:"markItemsPlayed,omitempty"`
		}{m.Status, m.Message, m.Title, m.ID, m.MarkItemsPlayed})
	default:
		return json.Marshal(struct {
			Status  string `json:"status,omitempty"`
			Message string `json:"message,omitempty"`
		}{m.Status, m.Message})
	}
}

// stringField renders scalar JSON values as text; ids arrive as numbers from some hosts.
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		// objects and arrays
		return true
	}
}
