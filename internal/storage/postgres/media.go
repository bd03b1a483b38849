package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actionculture/heritage/internal/domain"
)

// MediaRepository implements storage.MediaRepository using PostgreSQL.
type MediaRepository struct {
	pool *pgxpool.Pool
}

// NewMediaRepository creates a new media repository.
func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

func (r *MediaRepository) Create(ctx context.Context, media *domain.Media) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO media (id, site_id, type, titre, description, url, taille, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		media.ID,
		media.SiteID,
		string(media.Kind),
		media.Title,
		media.Description,
		media.URL,
		media.Size,
		media.CreatedAt,
	)

	return mapError(err)
}

func (r *MediaRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]domain.Media, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `
		SELECT id, site_id, type, titre, description, url, taille, created_at
		FROM media WHERE site_id = $1
		ORDER BY created_at DESC`, siteID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var media []domain.Media
	for rows.Next() {
		var (
			m    domain.Media
			kind string
		)
		if err := rows.Scan(&m.ID, &m.SiteID, &kind, &m.Title, &m.Description, &m.URL, &m.Size, &m.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		m.Kind = domain.MediaKind(kind)
		media = append(media, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return media, nil
}
