package propsheet

import (
	"context"
	"time"
)

// Listing is a persisted record owned by an account, ready for rendering.
type Listing struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"ownerId,omitempty"`
	SourceURL string         `json:"sourceUrl"`
	Record    Record         `json:"record"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Validate returns an error if the listing contains invalid fields.
func (l *Listing) Validate() error {
	if l.OwnerID == "" {
		return Errorf(EINVALID, "listing owner required")
	}
	if IsMissing(l.Record.Brand.Name) {
		return Errorf(EINVALID, "listing brand name required")
	}
	if IsMissing(l.Record.Property.Resume) {
		return Errorf(EINVALID, "listing property resume required")
	}
	return nil
}

// ListingService represents a service for managing listings.
type ListingService interface {
	// CreateListing persists a new listing and assigns its ID.
	CreateListing(ctx context.Context, listing *Listing) error

	// FindListingByID retrieves a listing by ID.
	// Returns ENOTFOUND if the listing does not exist.
	FindListingByID(ctx context.Context, id string) (*Listing, error)

	// FindListings retrieves listings matching the filter, newest first.
	FindListings(ctx context.Context, filter ListingFilter) ([]*Listing, error)

	// UpdateListingConfig replaces the renderer settings of a listing.
	// Returns ENOTFOUND if the listing does not exist.
	UpdateListingConfig(ctx context.Context, id string, config map[string]any) (*Listing, error)

	// DeleteListing permanently removes a listing.
	// Returns ENOTFOUND if the listing does not exist.
	DeleteListing(ctx context.Context, id string) error
}

// ListingFilter represents a filter for FindListings.
type ListingFilter struct {
	OwnerID   *string `json:"ownerId"`
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
