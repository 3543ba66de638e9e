package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNoMediaID indicates no item is currently selected
	ErrNoMediaID = errors.New("no media item selected")

	// ErrItemNotFound indicates the requested media item does not exist
	ErrItemNotFound = errors.New("media item not found")

	// ErrServerOffline indicates the media server is unreachable
	ErrServerOffline = errors.New("media server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrIncompleteMetadata indicates the server returned metadata that lacks
	// a field required to build a playback request
	ErrIncompleteMetadata = errors.New("media metadata is incomplete")

	// ErrChannelUnavailable indicates the link to the playback host is broken
	ErrChannelUnavailable = errors.New("playback channel is unavailable")
)
