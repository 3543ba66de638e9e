package plex

// Page pairs the API client with the current selection, giving the relay a
// single collaborator that can identify, describe, and scrobble the item on screen.
type Page struct {
	*Client
	*Selection
}

// NewPage creates a Page over client with an empty selection
func NewPage(client *Client) *Page {
	return &Page{Client: client, Selection: NewSelection("")}
}
