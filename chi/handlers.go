package chi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/propsheet/propsheet"
)

type extractRequest struct {
	URL string `json:"url"`
}

type createListingRequest struct {
	URL       string            `json:"url"`
	SourceURL string            `json:"sourceUrl"`
	Record    *propsheet.Record `json:"record"`
}

type uploadImagesRequest struct {
	ImageURLs      []string `json:"imageUrls"`
	DestinationKey string   `json:"destinationKey"`
}

type onboardRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return propsheet.Errorf(propsheet.EINVALID, "invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"sources": s.service.Registry.Labels()})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}

	res, err := s.service.Extract(r.Context(), req.URL)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if s.metrics != nil && !res.Cached {
		s.metrics.ObserveExtraction(res.Source, res.Degraded)
	}
	render.JSON(w, r, res)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	ownerID := AccountIDFromContext(r.Context())

	var listing *propsheet.Listing
	var err error
	switch {
	case req.Record != nil:
		sourceURL := req.SourceURL
		if sourceURL == "" {
			sourceURL = req.URL
		}
		listing, err = s.service.SaveListing(r.Context(), ownerID, sourceURL, *req.Record)
	case strings.TrimSpace(req.URL) != "":
		listing, err = s.service.CreateListing(r.Context(), ownerID, req.URL)
	default:
		err = propsheet.Errorf(propsheet.EINVALID, "url or record required")
	}
	if err != nil {
		s.Error(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"id": listing.ID, "listing": listing})
}

func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	var req uploadImagesRequest
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if len(req.ImageURLs) == 0 {
		s.Error(w, r, propsheet.Errorf(propsheet.EINVALID, "imageUrls required"))
		return
	}

	dest := strings.Trim(strings.TrimSpace(req.DestinationKey), "/")
	if dest == "" || strings.Contains(dest, "..") {
		s.Error(w, r, propsheet.Errorf(propsheet.EINVALID, "invalid destinationKey %q", req.DestinationKey))
		return
	}

	// Uploads are confined to the caller's namespace.
	key := AccountIDFromContext(r.Context()) + "/" + dest

	urls, err := s.service.UploadImages(r.Context(), req.ImageURLs, key)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"urls": urls})
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.service.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.JSON(w, r, listing)
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.service.ListListings(r.Context(), AccountIDFromContext(r.Context()))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"listings": listings, "total": len(listings)})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var config map[string]any
	if err := decode(r, &config); err != nil {
		s.Error(w, r, err)
		return
	}

	listing, err := s.service.UpdateConfig(r.Context(), AccountIDFromContext(r.Context()), chi.URLParam(r, "id"), config)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.JSON(w, r, listing)
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}

	account, err := s.service.Onboard(r.Context(), &propsheet.Account{
		ID:    AccountIDFromContext(r.Context()),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, account)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := s.service.Account(r.Context(), AccountIDFromContext(r.Context()))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	render.JSON(w, r, account)
}
