package domain

import "fmt"

// ItemMetadata is the server's description of a single item, reduced to the
// nested collections needed for playback. Only the first element of each
// collection is ever used.
type ItemMetadata struct {
	Items []MetadataItem
}

// MetadataItem is one entry of a metadata container
type MetadataItem struct {
	ID         string // ratingKey
	Title      string
	Renditions []Rendition
}

// Rendition is one encoded version of an item (Plex "Media")
type Rendition struct {
	Parts []Part
}

// Part is a single file of a rendition
type Part struct {
	File string // absolute path on the server
	Key  string // streaming path relative to the server origin
}

// PrimaryPart returns the first item and the first part of its first rendition.
func (m *ItemMetadata) PrimaryPart() (MetadataItem, Part, error) {
	if len(m.Items) == 0 {
		return MetadataItem{}, Part{}, fmt.Errorf("%w: Metadata is empty", ErrIncompleteMetadata)
	}
	item := m.Items[0]
	if len(item.Renditions) == 0 {
		return MetadataItem{}, Part{}, fmt.Errorf("%w: Metadata[0].Media is empty", ErrIncompleteMetadata)
	}
	if len(item.Renditions[0].Parts) == 0 {
		return MetadataItem{}, Part{}, fmt.Errorf("%w: Metadata[0].Media[0].Part is empty", ErrIncompleteMetadata)
	}
	return item, item.Renditions[0].Parts[0], nil
}
