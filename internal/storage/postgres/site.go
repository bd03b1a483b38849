package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actionculture/heritage/internal/domain"
)

// SiteRepository implements storage.SiteRepository using PostgreSQL.
type SiteRepository struct {
	pool *pgxpool.Pool
}

// NewSiteRepository creates a new site repository.
func NewSiteRepository(pool *pgxpool.Pool) *SiteRepository {
	return &SiteRepository{pool: pool}
}

const siteColumns = `id, nom, description, categorie, wilaya, commune,
	latitude, longitude, visites, details, created_at, updated_at`

// Create stores a new site.
func (r *SiteRepository) Create(ctx context.Context, site *domain.Site) error {
	db := getDB(ctx, r.pool)

	details, err := json.Marshal(site.Details)
	if err != nil {
		return fmt.Errorf("encoding site details: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO sites (`+siteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		site.ID,
		site.Name,
		site.Description,
		string(site.Category),
		site.Wilaya,
		site.Commune,
		site.Latitude,
		site.Longitude,
		site.Visits,
		details,
		site.CreatedAt,
		site.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a site by its ID.
func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)
	return scanSite(row)
}

// Update saves changes to an existing site.
func (r *SiteRepository) Update(ctx context.Context, site *domain.Site) error {
	db := getDB(ctx, r.pool)

	details, err := json.Marshal(site.Details)
	if err != nil {
		return fmt.Errorf("encoding site details: %w", err)
	}

	site.UpdatedAt = time.Now().UTC()
	result, err := db.Exec(ctx, `
		UPDATE sites SET
			nom = $2,
			description = $3,
			categorie = $4,
			wilaya = $5,
			commune = $6,
			latitude = $7,
			longitude = $8,
			details = $9,
			updated_at = $10
		WHERE id = $1`,
		site.ID,
		site.Name,
		site.Description,
		string(site.Category),
		site.Wilaya,
		site.Commune,
		site.Latitude,
		site.Longitude,
		details,
		site.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementVisits bumps the visit counter.
func (r *SiteRepository) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `UPDATE sites SET visites = visites + 1 WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a site. Events and media go with it through ON DELETE CASCADE.
func (r *SiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves sites with filtering and pagination.
func (r *SiteRepository) List(ctx context.Context, filter domain.SiteFilter, page domain.PageRequest) ([]domain.Site, int64, error) {
	db := getDB(ctx, r.pool)
	page = page.Normalize()

	where, args := buildSiteWhere(filter)

	var total int64
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM sites WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	n := len(args)
	args = append(args, page.Limit, page.Offset())
	query := `SELECT ` + siteColumns + ` FROM sites WHERE ` + where +
		` ORDER BY ` + siteOrder(filter) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)

	sites, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return sites, total, nil
}

// Nearby retrieves sites within the radius, closest first.
func (r *SiteRepository) Nearby(ctx context.Context, params domain.NearbyParams) ([]domain.Site, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `
		SELECT `+siteColumns+`, distance FROM (
			SELECT `+siteColumns+`,
				2 * 6371 * asin(least(1, sqrt(
					power(sin(radians(latitude - $1) / 2), 2) +
					cos(radians($1)) * cos(radians(latitude)) *
					power(sin(radians(longitude - $2) / 2), 2)
				))) AS distance
			FROM sites
		) nearby
		WHERE distance <= $3
		ORDER BY distance ASC, id ASC
		LIMIT $4`,
		params.Latitude, params.Longitude, params.RadiusKm, params.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var distance float64
		site, err := scanSite(rows, &distance)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sites, nil
}

// Popular retrieves the most visited sites.
func (r *SiteRepository) Popular(ctx context.Context, limit int) ([]domain.Site, error) {
	return r.query(ctx, `
		SELECT `+siteColumns+` FROM sites
		ORDER BY visites DESC, created_at DESC
		LIMIT $1`, limit)
}

// ByCategory retrieves sites of one category.
func (r *SiteRepository) ByCategory(ctx context.Context, params domain.CategoryParams) ([]domain.Site, error) {
	if params.Wilaya == "" {
		return r.query(ctx, `
			SELECT `+siteColumns+` FROM sites
			WHERE categorie = $1
			ORDER BY nom ASC
			LIMIT $2`, string(params.Category), params.Limit)
	}
	return r.query(ctx, `
		SELECT `+siteColumns+` FROM sites
		WHERE categorie = $1 AND LOWER(wilaya) = LOWER($2)
		ORDER BY nom ASC
		LIMIT $3`, string(params.Category), params.Wilaya, params.Limit)
}

func (r *SiteRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Site, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sites, nil
}

// buildSiteWhere renders the filter into a parameterized WHERE clause.
func buildSiteWhere(filter domain.SiteFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := next("%" + likeEscaper.Replace(filter.Search) + "%")
		like := " ILIKE " + p + ` ESCAPE '\'`
		clauses = append(clauses, "(nom"+like+" OR description"+like+" OR wilaya"+like+" OR commune"+like+")")
	}

	if len(filter.Categories) > 0 {
		cats := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = string(c)
		}
		clauses = append(clauses, "categorie = ANY("+next(cats)+")")
	}

	if len(filter.Wilayas) > 0 {
		clauses = append(clauses, "wilaya = ANY("+next(filter.Wilayas)+")")
	}

	var eventClauses []string
	if filter.DateFrom != nil {
		eventClauses = append(eventClauses, "e.date_fin >= "+next(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		eventClauses = append(eventClauses, "e.date_debut <= "+next(*filter.DateTo))
	}
	if filter.PriceMin != nil {
		eventClauses = append(eventClauses, "COALESCE(e.tarif, 0) >= "+next(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		eventClauses = append(eventClauses, "COALESCE(e.tarif, 0) <= "+next(*filter.PriceMax))
	}
	if len(eventClauses) > 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM events e WHERE e.site_id = sites.id AND "+
			strings.Join(eventClauses, " AND ")+")")
	}

	if len(clauses) == 0 {
		return "1=1", args
	}
	return strings.Join(clauses, " AND "), args
}

// likeEscaper makes search terms match literally inside ILIKE patterns.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

var siteSortColumns = map[string]string{
	domain.SortByDateCreation: "created_at",
	domain.SortByName:         "nom",
	domain.SortByVisits:       "visites",
	domain.SortByWilaya:       "wilaya",
}

// siteOrder renders a whitelisted ORDER BY; unknown keys fall back to the default.
func siteOrder(filter domain.SiteFilter) string {
	column, ok := siteSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}
	return column + " " + direction + ", id " + direction
}

// scannable is satisfied by both pgx.Row and pgx.Rows
type scannable interface {
	Scan(dest ...any) error
}

func scanSite(row scannable, extra ...any) (*domain.Site, error) {
	var (
		site     domain.Site
		category string
		details  []byte
	)

	dest := []any{
		&site.ID,
		&site.Name,
		&site.Description,
		&category,
		&site.Wilaya,
		&site.Commune,
		&site.Latitude,
		&site.Longitude,
		&site.Visits,
		&details,
		&site.CreatedAt,
		&site.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, mapError(err)
	}

	site.Category = domain.Category(category)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &site.Details); err != nil {
			return nil, fmt.Errorf("decoding site details: %w", err)
		}
	}

	return &site, nil
}
