package api

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/export"
)

// StatusRequest is the body of status changes on applications and stories
type StatusRequest struct {
	Status string `json:"status"`
}

// ExportRequest carries the records the dashboard already holds plus its view settings
type ExportRequest struct {
	Records []educontent.Application `json:"records"`
	Search  string                   `json:"search"`
	Status  string                   `json:"status"`
	Sort    string                   `json:"sort"`
}

func (s *Server) adminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.adminGuard)

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", s.adminListApplications)
		r.Post("/export", s.adminExportApplications)
		r.Get("/{id}", s.adminGetApplication)
		r.Put("/{id}", s.adminUpdateApplicationStatus)
		r.Delete("/{id}", s.adminDeleteApplication)
	})

	r.Route("/stories", func(r chi.Router) {
		r.Get("/", s.adminListStories)
		r.Put("/{id}", s.adminModerateStory)
		r.Delete("/{id}", s.adminDeleteStory)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Get("/", s.listResources)
		r.Post("/", s.adminCreateResource)
		r.Put("/{id}", s.adminUpdateResource)
		r.Delete("/{id}", s.adminDeleteResource)
	})

	r.Route("/news", func(r chi.Router) {
		r.Get("/", s.adminListNews)
		r.Post("/", s.adminCreateNews)
		r.Put("/{id}", s.adminUpdateNews)
		r.Delete("/{id}", s.adminDeleteNews)
	})

	r.Route("/universities", func(r chi.Router) {
		r.Get("/", s.listUniversities)
		r.Post("/", s.adminCreateUniversity)
		r.Put("/{id}", s.adminUpdateUniversity)
		r.Delete("/{id}", s.adminDeleteUniversity)
	})

	r.Route("/gallery", func(r chi.Router) {
		r.Get("/", s.listGallery)
		r.Post("/", s.adminCreateGalleryImage)
		r.Delete("/{id}", s.adminDeleteGalleryImage)
	})

	return r
}

// adminGuard rejects everything when no admin key is configured
func (s *Server) adminGuard(next http.Handler) http.Handler {
	if s.adminAuth == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("admin request rejected, no admin api key configured", "path", r.URL.Path)
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, Envelope{Error: "authentication required"})
		})
	}
	return s.adminAuth(next)
}

// Applications

func (s *Server) adminListApplications(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list applications", false)
		return
	}
	res, err := s.svc.Applications.List(r.Context(), educontent.ListApplicationsRequest{
		Page:   page,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list applications", false)
		return
	}
	renderList(w, r, res)
}

func (s *Server) adminGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.svc.Applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err, "failed to get application", false)
		return
	}
	renderData(w, r, http.StatusOK, app)
}

func (s *Server) adminUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to update application", false)
		return
	}
	app, err := s.svc.Applications.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.renderError(w, r, err, "failed to update application", false)
		return
	}
	renderData(w, r, http.StatusOK, app)
}

func (s *Server) adminDeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Applications.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete application", false)
		return
	}
	renderDeleted(w, r)
}

// adminExportApplications renders the posted records as CSV without reading the store
func (s *Server) adminExportApplications(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to export applications", false)
		return
	}
	by, err := export.ParseSort(req.Sort)
	if err != nil {
		s.renderError(w, r, err, "failed to export applications", false)
		return
	}
	out, err := export.Apply(req.Records, export.Criteria{Search: req.Search, Status: req.Status}, by)
	if err != nil {
		s.renderError(w, r, err, "failed to export applications", false)
		return
	}

	name := fmt.Sprintf("applications-%s.csv", s.now().Format(educontent.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("export write failed", "request_id", requestID(r), "error", err)
	}
}

// Stories

func (s *Server) adminListStories(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list stories", false)
		return
	}
	res, err := s.svc.Stories.List(r.Context(), educontent.ListStoriesRequest{
		Page:   page,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list stories", false)
		return
	}
	renderList(w, r, res)
}

func (s *Server) adminModerateStory(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to update story", false)
		return
	}
	st, err := s.svc.Stories.Moderate(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.renderError(w, r, err, "failed to update story", false)
		return
	}
	renderData(w, r, http.StatusOK, st)
}

func (s *Server) adminDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Stories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete story", false)
		return
	}
	renderDeleted(w, r)
}

// Resources

func (s *Server) adminCreateResource(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(r); err != nil {
		s.renderError(w, r, err, "failed to create resource", false)
		return
	}
	file, f, err := formFile(r, "file")
	if err != nil {
		s.renderError(w, r, err, "failed to create resource", false)
		return
	}
	defer closeFile(f)

	res, err := s.svc.Resources.Create(r.Context(), educontent.CreateResourceRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Type:        r.FormValue("type"),
	}, file)
	if err != nil {
		s.renderError(w, r, err, "failed to create resource", false)
		return
	}
	renderData(w, r, http.StatusCreated, res)
}

func (s *Server) adminUpdateResource(w http.ResponseWriter, r *http.Request) {
	var req educontent.UpdateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to update resource", false)
		return
	}
	res, err := s.svc.Resources.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.renderError(w, r, err, "failed to update resource", false)
		return
	}
	renderData(w, r, http.StatusOK, res)
}

func (s *Server) adminDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Resources.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete resource", false)
		return
	}
	renderDeleted(w, r)
}

// News and events

func (s *Server) adminListNews(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r)
	if err != nil {
		s.renderError(w, r, err, "failed to list news", false)
		return
	}
	res, err := s.svc.News.List(r.Context(), educontent.ListNewsRequest{
		Page:          page,
		Type:          r.URL.Query().Get("type"),
		PublishedOnly: queryBool(r, "published"),
	})
	if err != nil {
		s.renderError(w, r, err, "failed to list news", false)
		return
	}
	renderList(w, r, res)
}

func (s *Server) adminCreateNews(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(r); err != nil {
		s.renderError(w, r, err, "failed to create news", false)
		return
	}
	image, f, err := formFile(r, "image")
	if err != nil {
		s.renderError(w, r, err, "failed to create news", false)
		return
	}
	defer closeFile(f)

	n, err := s.svc.News.Create(r.Context(), educontent.CreateNewsEventRequest{
		Title:   r.FormValue("title"),
		Type:    r.FormValue("type"),
		Content: r.FormValue("content"),
		Date:    r.FormValue("date"),
		Status:  r.FormValue("status"),
	}, image)
	if err != nil {
		s.renderError(w, r, err, "failed to create news", false)
		return
	}
	renderData(w, r, http.StatusCreated, n)
}

func (s *Server) adminUpdateNews(w http.ResponseWriter, r *http.Request) {
	var req educontent.UpdateNewsEventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to update news", false)
		return
	}
	n, err := s.svc.News.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.renderError(w, r, err, "failed to update news", false)
		return
	}
	renderData(w, r, http.StatusOK, n)
}

func (s *Server) adminDeleteNews(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.News.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete news", false)
		return
	}
	renderDeleted(w, r)
}

// Universities

func (s *Server) adminCreateUniversity(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(r); err != nil {
		s.renderError(w, r, err, "failed to create university", false)
		return
	}
	ranking, err := formInt(r, "ranking")
	if err != nil {
		s.renderError(w, r, err, "failed to create university", false)
		return
	}
	image, f, err := formFile(r, "image")
	if err != nil {
		s.renderError(w, r, err, "failed to create university", false)
		return
	}
	defer closeFile(f)

	u, err := s.svc.Universities.Create(r.Context(), educontent.CreateUniversityRequest{
		Name:        r.FormValue("name"),
		Country:     r.FormValue("country"),
		Intake:      r.FormValue("intake"),
		Programs:    r.FormValue("programs"),
		Ranking:     ranking,
		Description: r.FormValue("description"),
	}, image)
	if err != nil {
		s.renderError(w, r, err, "failed to create university", false)
		return
	}
	renderData(w, r, http.StatusCreated, u)
}

func (s *Server) adminUpdateUniversity(w http.ResponseWriter, r *http.Request) {
	var req educontent.UpdateUniversityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err, "failed to update university", false)
		return
	}
	u, err := s.svc.Universities.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.renderError(w, r, err, "failed to update university", false)
		return
	}
	renderData(w, r, http.StatusOK, u)
}

func (s *Server) adminDeleteUniversity(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Universities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete university", false)
		return
	}
	renderDeleted(w, r)
}

// Gallery

func (s *Server) adminCreateGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(r); err != nil {
		s.renderError(w, r, err, "failed to create gallery image", false)
		return
	}
	image, f, err := formFile(r, "image")
	if err != nil {
		s.renderError(w, r, err, "failed to create gallery image", false)
		return
	}
	defer closeFile(f)

	g, err := s.svc.Gallery.Create(r.Context(), educontent.CreateGalleryImageRequest{
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
	}, image)
	if err != nil {
		s.renderError(w, r, err, "failed to create gallery image", false)
		return
	}
	renderData(w, r, http.StatusCreated, g)
}

func (s *Server) adminDeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Gallery.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err, "failed to delete gallery image", false)
		return
	}
	renderDeleted(w, r)
}
