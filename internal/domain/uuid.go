package domain

import (
	"github.com/google/uuid"
)

// ParseID parses a textual identifier, reporting malformed ids as a validation error
// on the given field.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ValidationError{Field: field, Message: "invalid UUID"}
	}
	return id, nil
}
