package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaKind is the type of an attached media file.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// Valid returns true if the MediaKind is recognized.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaAudio, MediaDocument:
		return true
	}
	return false
}

// Media is a file attached to a site.
type Media struct {
	ID          uuid.UUID
	SiteID      uuid.UUID
	Kind        MediaKind
	Title       string
	Description string
	URL         string
	Size        int64
	CreatedAt   time.Time
}

// MediaMetadata enumerates every recognized metadata key sent alongside an upload.
type MediaMetadata struct {
	Kind        MediaKind
	Title       string
	Description string
}

// Validate checks the metadata. An empty kind defaults to image.
func (m *MediaMetadata) Validate() error {
	m.Kind = MediaKind(strings.ToLower(strings.TrimSpace(string(m.Kind))))
	if m.Kind == "" {
		m.Kind = MediaImage
	}
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)

	var errs ValidationErrors
	if !m.Kind.Valid() {
		errs = append(errs, ValidationError{Field: "type", Message: "invalid media type"})
	}
	if len(m.Title) > 200 {
		errs = append(errs, ValidationError{Field: "titre", Message: "must be at most 200 characters"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
