package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/editor"
	"github.com/livetemplate/pageforge/internal/pages"
	"github.com/livetemplate/pageforge/internal/store"
)

// maxRequestBodySize limits the size of incoming request bodies (1MB)
const maxRequestBodySize = 1 << 20

// maxPageLimit caps the page size of list requests.
const maxPageLimit = 100

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntParam(r, "limit", 0)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	list, err := s.pages.List(r.Context(), pages.Owner(r.Context()), store.ListOptions{
		Search: q.Get("search"),
		Status: store.Status(q.Get("status")),
		Limit:  limit,
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in pages.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := s.pages.Create(r.Context(), pages.Owner(r.Context()), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.Get(r.Context(), pages.Owner(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in pages.UpdateInput
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := s.pages.Update(r.Context(), pages.Owner(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.hub.reload(p.ID, p.Content, in.Content != nil)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.pages.Delete(r.Context(), pages.Owner(r.Context()), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.hub.drop(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Page deleted successfully"})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.Publish(r.Context(), pages.Owner(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.Unpublish(r.Context(), pages.Owner(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.ViewBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// templateInfo is one palette entry with the properties its elements expose.
type templateInfo struct {
	*pageforge.Template
	Properties []editor.PropertyDef `json:"properties"`
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	palette := pageforge.Palette()
	out := make([]templateInfo, 0, len(palette))
	for _, t := range palette {
		out = append(out, templateInfo{Template: t, Properties: editor.Schema(t.Type)})
	}
	writeJSON(w, http.StatusOK, out)
}

type renderRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	html, err := s.pages.Preview(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, editor.UserFriendlyMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

// writeServiceError maps page service errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *pages.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, pages.ErrConflict):
		writeError(w, http.StatusConflict, "Slug already exists")
	case errors.Is(err, pages.ErrNotFound):
		writeError(w, http.StatusNotFound, "Page not found")
	case errors.Is(err, store.ErrCircuitOpen):
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "Storage temporarily unavailable")
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("page request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONError(w, status, message)
}

// parseIntParam reads a non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
