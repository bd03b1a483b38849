package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actionculture/heritage/internal/domain"
)

// EventRepository implements storage.EventRepository using PostgreSQL.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create stores a new event. A missing site surfaces as ErrConflict.
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO events (
			id, site_id, nom, description, date_debut, date_fin,
			tarif, capacite, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID,
		event.SiteID,
		event.Name,
		event.Description,
		event.StartsAt,
		event.EndsAt,
		event.Price,
		event.Capacity,
		event.CreatedAt,
	)

	return mapError(err)
}

// ListBySite retrieves a site's events ordered by start date.
func (r *EventRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]domain.Event, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `
		SELECT id, site_id, nom, description, date_debut, date_fin,
			   tarif, capacite, created_at
		FROM events WHERE site_id = $1
		ORDER BY date_debut ASC`, siteID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID,
			&e.SiteID,
			&e.Name,
			&e.Description,
			&e.StartsAt,
			&e.EndsAt,
			&e.Price,
			&e.Capacity,
			&e.CreatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}
