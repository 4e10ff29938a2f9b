package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propsheet/propsheet"
)

// Compile-time interface verification.
var _ propsheet.ListingService = (*ListingService)(nil)

// ListingService implements propsheet.ListingService using SQLite.
// Records and renderer settings are stored as JSON documents.
type ListingService struct {
	db *DB
}

// NewListingService creates a new ListingService.
func NewListingService(db *DB) *ListingService {
	return &ListingService{db: db}
}

const listingColumns = `id, owner_id, source_url, record, config, created_at, updated_at`

// CreateListing normalizes the record, assigns an ID and persists the listing.
func (s *ListingService) CreateListing(ctx context.Context, listing *propsheet.Listing) error {
	listing.Record.Normalize()
	if err := listing.Validate(); err != nil {
		return err
	}

	record, err := json.Marshal(listing.Record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	config, err := json.Marshal(listing.Config)
	if err != nil {
		return propsheet.Errorf(propsheet.EINVALID, "listing config is not serializable: %v", err)
	}

	listing.ID = uuid.New().String()
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, listing.ID, listing.OwnerID, listing.SourceURL, string(record), string(config),
		listing.CreatedAt.Format(time.RFC3339), listing.UpdatedAt.Format(time.RFC3339))
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return propsheet.Errorf(propsheet.ENOTFOUND, "account not found")
	}
	return err
}

// FindListingByID retrieves a listing by ID.
func (s *ListingService) FindListingByID(ctx context.Context, id string) (*propsheet.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	listing, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, propsheet.Errorf(propsheet.ENOTFOUND, "listing not found")
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// FindListings retrieves listings matching the filter, newest first.
func (s *ListingService) FindListings(ctx context.Context, filter propsheet.ListingFilter) ([]*propsheet.Listing, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + listingColumns + " FROM listings WHERE 1=1")

	if filter.OwnerID != nil {
		query.WriteString(" AND owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	// rowid breaks ties between listings created within the same second.
	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []*propsheet.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// UpdateListingConfig replaces the renderer settings of a listing.
func (s *ListingService) UpdateListingConfig(ctx context.Context, id string, config map[string]any) (*propsheet.Listing, error) {
	listing, err := s.FindListingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(config)
	if err != nil {
		return nil, propsheet.Errorf(propsheet.EINVALID, "listing config is not serializable: %v", err)
	}

	listing.Config = config
	listing.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE listings SET config = ?, updated_at = ? WHERE id = ?
	`, string(encoded), listing.UpdatedAt.Format(time.RFC3339), id)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteListing permanently removes a listing.
func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(result, "listing not found")
}

func scanListing(row scanner) (*propsheet.Listing, error) {
	var listing propsheet.Listing
	var record, config, createdAt, updatedAt string

	if err := row.Scan(&listing.ID, &listing.OwnerID, &listing.SourceURL, &record, &config,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(record), &listing.Record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal([]byte(config), &listing.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	var err error
	if listing.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if listing.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &listing, nil
}
