package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeEvent is an immutable fact about something that happened to heritage content.
type ChangeEvent struct {
	ID        uuid.UUID
	Type      string
	Timestamp time.Time
	SubjectID uuid.UUID
	ActorID   uuid.UUID
	Data      map[string]any
}

// Change type constants
const (
	ChangeSiteCreated   = "site.created"
	ChangeSiteUpdated   = "site.updated"
	ChangeSiteDeleted   = "site.deleted"
	ChangeEventCreated  = "event.created"
	ChangeMediaAttached = "media.attached"
	ChangeUserLoggedIn  = "user.logged_in"
)

// NewChangeEvent creates a new change event.
func NewChangeEvent(changeType string, subjectID, actorID uuid.UUID, data map[string]any) ChangeEvent {
	if data == nil {
		data = make(map[string]any)
	}
	return ChangeEvent{
		ID:        uuid.New(),
		Type:      changeType,
		Timestamp: time.Now().UTC(),
		SubjectID: subjectID,
		ActorID:   actorID,
		Data:      data,
	}
}

func SiteCreatedEvent(s *Site, actorID uuid.UUID) ChangeEvent {
	return NewChangeEvent(ChangeSiteCreated, s.ID, actorID, map[string]any{
		"nom":       s.Name,
		"categorie": string(s.Category),
		"wilaya":    s.Wilaya,
	})
}

func SiteDeletedEvent(siteID, actorID uuid.UUID) ChangeEvent {
	return NewChangeEvent(ChangeSiteDeleted, siteID, actorID, nil)
}

func EventCreatedEvent(e *Event, actorID uuid.UUID) ChangeEvent {
	return NewChangeEvent(ChangeEventCreated, e.ID, actorID, map[string]any{
		"site_id":    e.SiteID.String(),
		"nom":        e.Name,
		"date_debut": e.StartsAt.Format(time.RFC3339),
	})
}

func MediaAttachedEvent(m *Media, actorID uuid.UUID) ChangeEvent {
	return NewChangeEvent(ChangeMediaAttached, m.SiteID, actorID, map[string]any{
		"media_id": m.ID.String(),
		"type":     string(m.Kind),
		"size":     m.Size,
	})
}

func UserLoggedInEvent(userID uuid.UUID, ipAddress, userAgent string) ChangeEvent {
	return NewChangeEvent(ChangeUserLoggedIn, userID, userID, map[string]any{
		"ip_address": ipAddress,
		"user_agent": userAgent,
	})
}
