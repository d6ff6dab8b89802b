package book

import (
	"opdsapi/internal/catalog"
)

const (
	MediaTypeAudiobook = "application/audiobook+json"

	audioFormat = "64Kbps MP3"
	audioGlob   = "*.mp3"
)

// Manifest is a W3C audiobook manifest.
type Manifest struct {
	Metadata     catalog.PublicationMetadata `json:"metadata"`
	Links        []catalog.Link              `json:"links"`
	ReadingOrder []Track                     `json:"readingOrder"`
}

// Track is one entry of the reading order.
type Track struct {
	Href     string  `json:"href"`
	Type     string  `json:"type"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}
