package plex

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	metadataPathRe = regexp.MustCompile(`/library/metadata/(\d+)`)
	ratingKeyRe    = regexp.MustCompile(`^\d+$`)
)

// ItemIDFromURL extracts a ratingKey from a Plex Web location. Accepted forms:
//
//	https://app.plex.tv/desktop/#!/server/abc/details?key=%2Flibrary%2Fmetadata%2F42
//	http://host:32400/web/index.html#!/server/abc/details?key=/library/metadata/42
//	/library/metadata/42
//	42
//
// It returns "" when no id can be found.
func ItemIDFromURL(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if ratingKeyRe.MatchString(location) {
		return location
	}

	// Plex Web keeps its route in the fragment: "#!/server/<id>/details?key=..."
	if _, fragment, ok := strings.Cut(location, "#"); ok {
		fragment = strings.TrimPrefix(fragment, "!")
		if _, rawQuery, ok := strings.Cut(fragment, "?"); ok {
			if q, err := url.ParseQuery(rawQuery); err == nil {
				if m := metadataPathRe.FindStringSubmatch(q.Get("key")); m != nil {
					return m[1]
				}
			}
		}
	}

	if unescaped, err := url.QueryUnescape(location); err == nil {
		location = unescaped
	}
	if m := metadataPathRe.FindStringSubmatch(location); m != nil {
		return m[1]
	}
	return ""
}

// Selection tracks the item currently shown to the user, standing in for the
// page the relay is attached to. Safe for concurrent use.
type Selection struct {
	mu       sync.RWMutex
	location string
}

// NewSelection creates a selection pointing at location
func NewSelection(location string) *Selection {
	return &Selection{location: location}
}

// Set replaces the current location
func (s *Selection) Set(location string) {
	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
}

// Location returns the current location
func (s *Selection) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// CurrentItemID returns the ratingKey of the selected item, or "" if none
func (s *Selection) CurrentItemID() string {
	return ItemIDFromURL(s.Location())
}
