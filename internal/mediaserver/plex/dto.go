package plex

// MediaContainer is the root container for Plex API responses
type MediaContainer struct {
	Size       int        `json:"size"`
	Identifier string     `json:"identifier,omitempty"`
	Metadata   []Metadata `json:"Metadata,omitempty"`
}

// Metadata represents a media item (movie or episode)
type Metadata struct {
	RatingKey        string  `json:"ratingKey"`
	Key              string  `json:"key"`
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	GrandparentTitle string  `json:"grandparentTitle,omitempty"`
	ParentIndex      int     `json:"parentIndex,omitempty"`
	Index            int     `json:"index,omitempty"`
	Year             int     `json:"year,omitempty"`
	Duration         int     `json:"duration,omitempty"`
	ViewOffset       int     `json:"viewOffset,omitempty"`
	Media            []Media `json:"Media,omitempty"`
}

// Media represents one rendition of an item
type Media struct {
	ID        int    `json:"id"`
	Duration  int    `json:"duration,omitempty"`
	Container string `json:"container,omitempty"`
	Part      []Part `json:"Part,omitempty"`
}

// Part represents a media file part
type Part struct {
	ID        int    `json:"id"`
	Key       string `json:"key"`
	Duration  int    `json:"duration,omitempty"`
	File      string `json:"file,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Container string `json:"container,omitempty"`
}

// APIResponse wraps the MediaContainer for JSON unmarshaling
type APIResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}
