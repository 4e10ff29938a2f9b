package mock

import (
	"context"

	"github.com/propsheet/propsheet"
)

var _ propsheet.ListingService = (*ListingService)(nil)

// ListingService is a mock implementation of propsheet.ListingService.
type ListingService struct {
	CreateListingFn       func(ctx context.Context, listing *propsheet.Listing) error
	FindListingByIDFn     func(ctx context.Context, id string) (*propsheet.Listing, error)
	FindListingsFn        func(ctx context.Context, filter propsheet.ListingFilter) ([]*propsheet.Listing, error)
	UpdateListingConfigFn func(ctx context.Context, id string, config map[string]any) (*propsheet.Listing, error)
	DeleteListingFn       func(ctx context.Context, id string) error
}

func (s *ListingService) CreateListing(ctx context.Context, listing *propsheet.Listing) error {
	return s.CreateListingFn(ctx, listing)
}

func (s *ListingService) FindListingByID(ctx context.Context, id string) (*propsheet.Listing, error) {
	return s.FindListingByIDFn(ctx, id)
}

func (s *ListingService) FindListings(ctx context.Context, filter propsheet.ListingFilter) ([]*propsheet.Listing, error) {
	return s.FindListingsFn(ctx, filter)
}

func (s *ListingService) UpdateListingConfig(ctx context.Context, id string, config map[string]any) (*propsheet.Listing, error) {
	return s.UpdateListingConfigFn(ctx, id, config)
}

func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	return s.DeleteListingFn(ctx, id)
}
