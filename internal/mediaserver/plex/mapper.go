package plex

import "github.com/mmcdole/kinorelay/internal/domain"

// MapItemMetadata converts a Plex container to domain metadata. Empty
// collections are preserved so the caller can report which one was missing.
func MapItemMetadata(c *MediaContainer) *domain.ItemMetadata {
	md := &domain.ItemMetadata{Items: make([]domain.MetadataItem, 0, len(c.Metadata))}
	for _, m := range c.Metadata {
		md.Items = append(md.Items, mapItem(m))
	}
	return md
}

func mapItem(m Metadata) domain.MetadataItem {
	item := domain.MetadataItem{
		ID:         m.RatingKey,
		Title:      m.Title,
		Renditions: make([]domain.Rendition, 0, len(m.Media)),
	}
	for _, media := range m.Media {
		r := domain.Rendition{Parts: make([]domain.Part, 0, len(media.Part))}
		for _, p := range media.Part {
			r.Parts = append(r.Parts, domain.Part{File: p.File, Key: p.Key})
		}
		item.Renditions = append(item.Renditions, r)
	}
	return item
}
