package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
)

func siteIDParam(r *http.Request) (uuid.UUID, error) {
	return domain.ParseID("id", chi.URLParam(r, "id"))
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, filterKeys, pageKeys); err != nil {
		s.writeError(w, err)
		return
	}

	filter, err := parseSiteFilter(q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := parsePage(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.siteService.ListSites(r.Context(), filter, page)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.Page[api.Site]{
		Items:      api.FromSites(result.Items),
		Pagination: result.Pagination,
	})
}

func (s *Server) handleSearchSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, []string{"q"}, filterKeys); err != nil {
		s.writeError(w, err)
		return
	}

	filter, err := parseSiteFilter(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sites, err := s.siteService.SearchSites(r.Context(), q.Get("q"), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.List[api.Site]{Items: api.FromSites(sites)})
}

func (s *Server) handleNearbySites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, []string{"lat", "lng", "radius", "limit"}); err != nil {
		s.writeError(w, err)
		return
	}

	var params domain.NearbyParams
	var errs domain.ValidationErrors
	var err error
	if params.Latitude, err = floatParam(q, "lat"); err != nil {
		errs = append(errs, err.(domain.ValidationError))
	}
	if params.Longitude, err = floatParam(q, "lng"); err != nil {
		errs = append(errs, err.(domain.ValidationError))
	}
	if q.Get("radius") != "" {
		if params.RadiusKm, err = floatParam(q, "radius"); err != nil {
			errs = append(errs, err.(domain.ValidationError))
		}
	}
	if params.Limit, err = intParam(q, "limit"); err != nil {
		errs = append(errs, err.(domain.ValidationError))
	}
	if len(errs) > 0 {
		s.writeError(w, errs)
		return
	}

	sites, err := s.siteService.NearbySites(r.Context(), params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.List[api.Site]{Items: api.FromSites(sites)})
}

func (s *Server) handlePopularSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, []string{"limit"}); err != nil {
		s.writeError(w, err)
		return
	}

	limit, err := intParam(q, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}

	sites, err := s.siteService.PopularSites(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.List[api.Site]{Items: api.FromSites(sites)})
}

func (s *Server) handleSitesByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, []string{"wilaya", "limit"}); err != nil {
		s.writeError(w, err)
		return
	}

	limit, err := intParam(q, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}

	sites, err := s.siteService.SitesByCategory(r.Context(), domain.CategoryParams{
		Category: domain.Category(chi.URLParam(r, "category")),
		Wilaya:   q.Get("wilaya"),
		Limit:    limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.List[api.Site]{Items: api.FromSites(sites)})
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	site, err := s.siteService.GetSite(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.FromSite(site))
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req api.SiteRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	site, err := s.siteService.CreateSite(r.Context(), req.Input())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, api.FromSite(site))
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req api.SiteRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	site, err := s.siteService.UpdateSite(r.Context(), id, req.Input())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.FromSite(site))
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.siteService.DeleteSite(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 8 << 20

func (s *Server) handleAttachMedia(w http.ResponseWriter, r *http.Request) {
	id, err := siteIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.maxUploadBytes > 0 {
		// Leave room for the multipart envelope and metadata fields.
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, domain.ValidationError{Field: "file", Message: "file too large"})
			return
		}
		s.writeError(w, domain.ValidationError{Field: "body", Message: "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, domain.ValidationError{Field: "file", Message: "required"})
		return
	}
	defer file.Close()

	media, err := s.siteService.AttachMedia(r.Context(), id, header.Filename, file, domain.MediaMetadata{
		Kind:        domain.MediaKind(r.FormValue("kind")),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, api.FromMedia(media))
}
