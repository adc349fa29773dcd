package provider

import (
	"errors"
	"io"
	"log"
	"net/http"
)

const streamChunk = 32 * 1024

// HandleStream serves GET /api/youtube/stream?videoId=. Headers are only
// written once the extractor has produced audio, so a dead extractor still
// gets a JSON error. The subprocess dies with the request context.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")

	stream, err := s.extractor.Stream(r.Context(), videoID)
	if err != nil {
		log.Printf("provider: stream %q: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "Failed to stream audio")
		return
	}
	defer stream.Close()

	h := w.Header()
	h.Set("Content-Type", stream.ContentType)
	h.Set("Content-Disposition", "inline")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, streamChunk)
	for {
		n, rerr := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			_ = rc.Flush()
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) && r.Context().Err() == nil {
				log.Printf("provider: stream %s ended early: %v", videoID, rerr)
			}
			return
		}
	}
}
