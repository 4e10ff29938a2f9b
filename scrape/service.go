// Package scrape runs the listing workflows: extracting a record from a
// source URL, gating persistence on the account's credit balance, hosting
// the gallery and storing the result.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/propsheet/propsheet"
)

// Result is the outcome of extracting a single listing page.
type Result struct {
	Record   propsheet.Record `json:"data"`
	Source   string           `json:"source"`
	Degraded bool             `json:"degraded"`
	Cached   bool             `json:"cached"`
}

// Service coordinates extraction, credit gating, image ingestion and
// persistence. Cache and Converter are optional.
type Service struct {
	Registry  propsheet.SourceRegistry
	Cache     propsheet.RecordCache
	Converter propsheet.Converter
	Ingester  propsheet.ImageIngester
	Ledger    propsheet.CreditLedger
	Accounts  propsheet.AccountService
	Listings  propsheet.ListingService
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Extract selects the extractor for url, fetches the page and returns the
// canonical record. A page whose structure could not be read yields a
// degraded result rather than an error. Fetch failures and unsupported
// sources are returned as typed errors.
func (s *Service) Extract(ctx context.Context, url string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "url required")
	}

	ex, err := s.Registry.Select(url)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		rec, ok, err := s.Cache.Get(ctx, url)
		if err != nil {
			s.logger().Warn("record cache read failed", "url", url, "err", err)
		} else if ok {
			return &Result{Record: *rec, Source: ex.Name(), Cached: true}, nil
		}
	}

	raw, err := ex.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	extraction := ex.Extract(raw, url)
	if extraction.Degraded() {
		s.logger().Warn("extraction degraded",
			"url", url,
			"source", ex.Name(),
			"err", extraction.Cause,
		)
		return &Result{Record: extraction.Record, Source: ex.Name(), Degraded: true}, nil
	}

	rec := extraction.Record
	rec.Property.Description = s.plainDescription(rec.Property.Description)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, url, rec); err != nil {
			s.logger().Warn("record cache write failed", "url", url, "err", err)
		}
	}

	return &Result{Record: rec, Source: ex.Name()}, nil
}

// plainDescription converts markup left in a description to markdown.
// Conversion failures keep the original text.
func (s *Service) plainDescription(desc string) string {
	if s.Converter == nil || !strings.Contains(desc, "<") {
		return desc
	}
	md, err := s.Converter.Convert(desc)
	if err != nil {
		s.logger().Warn("description conversion failed", "err", err)
		return desc
	}
	return propsheet.OrMissing(md)
}

// CreateListing extracts url for the account, hosts the gallery, stores
// the listing and consumes one credit.
func (s *Service) CreateListing(ctx context.Context, ownerID, url string) (*propsheet.Listing, error) {
	account, err := s.spendableAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	res, err := s.Extract(ctx, url)
	if err != nil {
		return nil, err
	}
	if res.Degraded {
		return nil, propsheet.Errorf(propsheet.EINVALID, "no listing data could be read from %s", url)
	}

	return s.persist(ctx, account, strings.TrimSpace(url), res.Record)
}

// SaveListing stores a record the client already extracted and edited.
// The gallery is hosted and one credit consumed as in CreateListing.
func (s *Service) SaveListing(ctx context.Context, ownerID, sourceURL string, rec propsheet.Record) (*propsheet.Listing, error) {
	account, err := s.spendableAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rec.Normalize()
	return s.persist(ctx, account, strings.TrimSpace(sourceURL), rec)
}

func (s *Service) spendableAccount(ctx context.Context, ownerID string) (*propsheet.Account, error) {
	if ownerID == "" {
		return nil, propsheet.Errorf(propsheet.EUNAUTHORIZED, "account id required")
	}
	account, err := s.Accounts.FindAccountByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.AssertSpendable(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) persist(ctx context.Context, account *propsheet.Account, sourceURL string, rec propsheet.Record) (*propsheet.Listing, error) {
	urls, err := s.Ingester.Ingest(ctx, rec.Property.Gallery, propsheet.DestinationKey(account.ID, sourceURL))
	if err != nil {
		return nil, err
	}

	listing := &propsheet.Listing{
		OwnerID:   account.ID,
		SourceURL: sourceURL,
		Record:    rec.WithGallery(urls),
	}
	if err := s.Listings.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("save listing: %w", err)
	}

	if err := s.Ledger.Debit(ctx, account); err != nil {
		// A concurrent request spent the last credit after our check.
		if derr := s.Listings.DeleteListing(ctx, listing.ID); derr != nil {
			s.logger().Error("listing rollback failed", "id", listing.ID, "err", derr)
		}
		return nil, err
	}

	s.logger().Info("listing created",
		"id", listing.ID,
		"owner", account.ID,
		"images", len(listing.Record.Property.Gallery),
		"credits", account.Credits,
	)
	return listing, nil
}

// UploadImages hosts imageURLs under destinationKey and returns the public
// URLs of the images that were processed.
func (s *Service) UploadImages(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error) {
	return s.Ingester.Ingest(ctx, imageURLs, destinationKey)
}

// GetListing returns a listing by id with the owner removed.
func (s *Service) GetListing(ctx context.Context, id string) (*propsheet.Listing, error) {
	listing, err := s.Listings.FindListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	listing.OwnerID = ""
	return listing, nil
}

// ListListings returns the account's listings, newest first.
func (s *Service) ListListings(ctx context.Context, ownerID string) ([]*propsheet.Listing, error) {
	if ownerID == "" {
		return nil, propsheet.Errorf(propsheet.EUNAUTHORIZED, "account id required")
	}
	return s.Listings.FindListings(ctx, propsheet.ListingFilter{OwnerID: &ownerID})
}

// UpdateConfig replaces the renderer settings of a listing owned by ownerID.
// Listings owned by someone else are reported as not found.
func (s *Service) UpdateConfig(ctx context.Context, ownerID, id string, config map[string]any) (*propsheet.Listing, error) {
	listing, err := s.Listings.FindListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, propsheet.Errorf(propsheet.ENOTFOUND, "listing not found")
	}
	return s.Listings.UpdateListingConfig(ctx, id, config)
}

// Onboard registers an account on the free plan. Onboarding an existing
// account returns it unchanged.
func (s *Service) Onboard(ctx context.Context, account *propsheet.Account) (*propsheet.Account, error) {
	if err := s.Accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Account returns the account identified by id.
func (s *Service) Account(ctx context.Context, id string) (*propsheet.Account, error) {
	if id == "" {
		return nil, propsheet.Errorf(propsheet.EUNAUTHORIZED, "account id required")
	}
	return s.Accounts.FindAccountByID(ctx, id)
}

// DowngradeExpiredPlans moves every paid account whose plan expired before
// now back to the free plan and returns how many were changed. A failure on
// one account is logged and does not stop the others.
func (s *Service) DowngradeExpiredPlans(ctx context.Context, now time.Time) (int, error) {
	accounts, err := s.Accounts.FindExpiredAccounts(ctx, now)
	if err != nil {
		return 0, err
	}

	var n int
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := a.ApplyPlan(propsheet.PlanFree, time.Time{}); err != nil {
			return n, err
		}
		a.StripeSubscriptionID = ""
		if err := s.Accounts.UpdatePlan(ctx, a); err != nil {
			s.logger().Error("plan downgrade failed", "account", a.ID, "err", err)
			continue
		}
		n++
	}
	s.logger().Info("expired plans downgraded", "count", n, "expired", len(accounts))
	return n, nil
}
