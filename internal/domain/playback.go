package domain

import "fmt"

// PlaybackRequestType is the discriminator of outbound playback requests
const PlaybackRequestType = "playback"

// PlaybackRequest is the message sent to the playback host for one button press.
type PlaybackRequest struct {
	Type        string `json:"type"`
	FilePath    string `json:"filePath"`
	DownloadURL string `json:"downloadUrl"`
	Title       string `json:"title"`
	ID          string `json:"id"`
}

// NewPlaybackRequest builds a request from the first part of the first
// rendition of the first item. The download URL is origin + part key with
// the access token appended as X-Plex-Token.
//
// Any missing field yields ErrIncompleteMetadata; a partial request is never returned.
func NewPlaybackRequest(origin, token string, md *ItemMetadata) (PlaybackRequest, error) {
	if md == nil {
		return PlaybackRequest{}, fmt.Errorf("%w: no metadata", ErrIncompleteMetadata)
	}
	item, part, err := md.PrimaryPart()
	if err != nil {
		return PlaybackRequest{}, err
	}

	switch {
	case part.File == "":
		return PlaybackRequest{}, fmt.Errorf("%w: Metadata[0].Media[0].Part[0].file", ErrIncompleteMetadata)
	case part.Key == "":
		return PlaybackRequest{}, fmt.Errorf("%w: Metadata[0].Media[0].Part[0].key", ErrIncompleteMetadata)
	case item.Title == "":
		return PlaybackRequest{}, fmt.Errorf("%w: Metadata[0].title", ErrIncompleteMetadata)
	case item.ID == "":
		return PlaybackRequest{}, fmt.Errorf("%w: Metadata[0].ratingKey", ErrIncompleteMetadata)
	case origin == "":
		return PlaybackRequest{}, fmt.Errorf("%w: page origin", ErrIncompleteMetadata)
	case token == "":
		return PlaybackRequest{}, fmt.Errorf("%w: access token", ErrIncompleteMetadata)
	}

	return PlaybackRequest{
		Type:        PlaybackRequestType,
		FilePath:    part.File,
		DownloadURL: origin + part.Key + "?X-Plex-Token=" + token,
		Title:       item.Title,
		ID:          item.ID,
	}, nil
}

// Validate reports whether every field of the request is populated.
func (r PlaybackRequest) Validate() error {
	switch {
	case r.Type != PlaybackRequestType:
		return fmt.Errorf("unexpected request type %q", r.Type)
	case r.FilePath == "", r.DownloadURL == "", r.Title == "", r.ID == "":
		return fmt.Errorf("%w: playback request has empty fields", ErrIncompleteMetadata)
	}
	return nil
}
