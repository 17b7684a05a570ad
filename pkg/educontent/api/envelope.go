package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/edu-content/pkg/educontent"
)

// Envelope is the body of every JSON response
type Envelope struct {
	Data      any    `json:"data,omitempty"`
	Documents any    `json:"documents,omitempty"`
	Total     *int   `json:"total,omitempty"`
	Success   bool   `json:"success,omitempty"`
	Error     string `json:"error,omitempty"`
}

const genericFailure = "Something went wrong. Please try again later."

func renderData(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Data: data, Success: true})
}

func renderList[T any](w http.ResponseWriter, r *http.Request, res *educontent.ListResult[T]) {
	total := res.Total
	render.JSON(w, r, Envelope{Documents: res.Items, Total: &total, Success: true})
}

func renderDeleted(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Envelope{Success: true})
}

// renderError classifies err and writes the matching status. Server failures are
// logged with their cause; public callers only see a generic retry message while
// admin callers get action, which names what failed.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error, action string, public bool) {
	kind := educontent.KindOf(err)
	status := kind.HTTPStatus()

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(action, "method", r.Method, "path", r.URL.Path, "request_id", requestID(r), "error", err)
		msg = action
		if public {
			msg = genericFailure
		}
	} else {
		s.logger.Warn(action, "method", r.Method, "path", r.URL.Path, "kind", string(kind), "error", err)
		var rec *educontent.RecordError
		if errors.As(err, &rec) && kind == educontent.KindNotFound {
			msg = s.svc.RecordKind(rec.Collection) + " " + rec.ID + " not found"
		}
	}

	render.Status(r, status)
	render.JSON(w, r, Envelope{Error: msg})
}
