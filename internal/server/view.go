package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/livetemplate/pageforge/internal/pages"
)

const notFoundPage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Page not found</title></head>
<body><h1>Page not found</h1></body></html>
`

// handleView serves a published page as a complete HTML document. Clients
// revalidate with the ETag.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	entry, err := s.pages.RenderPage(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, pages.ErrNotFound) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundPage))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("render published page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", entry.ETag)
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	if match := r.Header.Get("If-None-Match"); match != "" && match == entry.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(entry.HTML))
	}
}
