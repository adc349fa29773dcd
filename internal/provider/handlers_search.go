package provider

import (
	"log"
	"net/http"
)

// HandleSearch serves GET /api/youtube/search?q=&pageToken=.
// Every failure is reported as a generic 500; the cause only goes to the log.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	pageToken := r.URL.Query().Get("pageToken")

	page, err := s.searcher.Search(r.Context(), q, pageToken)
	if err != nil {
		log.Printf("provider: search %q: %v", q, err)
		writeError(w, http.StatusInternalServerError, "Failed to search YouTube")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
