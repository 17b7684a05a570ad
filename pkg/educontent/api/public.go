package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/edu-content/pkg/educontent"
)

func (s *Server) publicRoutes(r chi.Router) {
	r.With(RateLimitMiddleware(s.limiter, s.logger)).Post("/applications", s.submitApplication)

	r.Get("/stories", s.listApprovedStories)
	r.With(RateLimitMiddleware(s.limiter, s.logger)).Post("/stories", s.submitStory)

	r.Get("/resources", s.listResources)
	r.Get("/resources/{id}", s.getResource)
	r.Get("/resources/{id}/download-url", s.resourceDownloadURL)

	r.Get("/news", s.listPublishedNews)
	r.Get("/news/upcoming", s.listUpcomingEvents)

	r.Get("/universities", s.listUniversities)
	r.Get("/universities/{id}", s.getUniversity)

	r.Get("/gallery", s.listGallery)
}

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	if err := requireJSON(r); err != nil {
		s.renderError(w, r, err, "failed to submit application", true)
		return
	}
	var req educontent.SubmitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to submit application", true)
		return
	}

	app, err := s.svc.Applications.Submit(r.Context(), req)
	if err != nil {
		s.renderError(w, r, err, "failed to submit application", true)
		return
	}
	renderData(w, r, http.StatusCreated, app)
}

func (s *Server) listApprovedStories(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list stories", true)
		return
	}
	res, err := s.svc.Stories.ListApproved(r.Context(), page)
	if err != nil {
		s.renderError(w, r, err, "failed to list stories", true)
		return
	}
	renderList(w, r, res)
}

func (s *Server) submitStory(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(r); err != nil {
		s.renderError(w, r, err, "failed to submit story", true)
		return
	}
	rating, err := formInt(r, "rating")
	if err != nil {
		s.renderError(w, r, err, "failed to submit story", true)
		return
	}
	image, f, err := formFile(r, "image")
	if err != nil {
		s.renderError(w, r, err, "failed to submit story", true)
		return
	}
	defer closeFile(f)

	st, err := s.svc.Stories.Submit(r.Context(), educontent.SubmitStoryRequest{
		Name:       r.FormValue("name"),
		Program:    r.FormValue("program"),
		University: r.FormValue("university"),
		Content:    r.FormValue("content"),
		Rating:     rating,
	}, image)
	if err != nil {
		s.renderError(w, r, err, "failed to submit story", true)
		return
	}
	renderData(w, r, http.StatusCreated, st)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list resources", true)
		return
	}
	res, err := s.svc.Resources.List(r.Context(), educontent.ListResourcesRequest{
		Page: page,
		Type: r.URL.Query().Get("type"),
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list resources", true)
		return
	}
	renderList(w, r, res)
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Resources.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err, "failed to get resource", true)
		return
	}
	renderData(w, r, http.StatusOK, res)
}

func (s *Server) resourceDownloadURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Resources.DownloadURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err, "failed to get download url", true)
		return
	}
	renderData(w, r, http.StatusOK, map[string]string{"url": u})
}

func (s *Server) listPublishedNews(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list news", true)
		return
	}
	res, err := s.svc.News.ListPublished(r.Context(), page, r.URL.Query().Get("type"))
	if err != nil {
		s.renderError(w, r, err, "failed to list news", true)
		return
	}
	renderList(w, r, res)
}

func (s *Server) listUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list events", true)
		return
	}
	res, err := s.svc.News.ListUpcoming(r.Context(), page)
	if err != nil {
		s.renderError(w, r, err, "failed to list events", true)
		return
	}
	renderList(w, r, res)
}

func (s *Server) listUniversities(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list universities", true)
		return
	}
	res, err := s.svc.Universities.List(r.Context(), educontent.ListUniversitiesRequest{
		Page:      page,
		Country:   r.URL.Query().Get("country"),
		ByRanking: r.URL.Query().Get("sort") == "ranking",
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list universities", true)
		return
	}
	renderList(w, r, res)
}

func (s *Server) getUniversity(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Universities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err, "failed to get university", true)
		return
	}
	renderData(w, r, http.StatusOK, u)
}

func (s *Server) listGallery(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list gallery", true)
		return
	}
	res, err := s.svc.Gallery.List(r.Context(), educontent.ListGalleryRequest{
		Page:     page,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list gallery", true)
		return
	}
	renderList(w, r, res)
}
