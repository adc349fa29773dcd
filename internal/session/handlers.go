package session

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"neontune/internal/extractor"
	"neontune/internal/music"
	"neontune/internal/player"
)

type createResponse struct {
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	State     player.State `json:"state"`
}

type searchResponse struct {
	Page  music.SearchPage `json:"page"`
	State player.State     `json:"state"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Create(r.Context())
	if err != nil {
		log.Printf("session: create: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	token, err := s.tokens.Issue(sess.ID)
	if err != nil {
		log.Printf("session: issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		SessionID: sess.ID,
		Token:     token,
		State:     sess.State(),
	})
}

// loadSession resolves {id} or writes the error response.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		log.Printf("session: load: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return sess, true
}

// mutate applies fn to the session player, then persists, publishes and
// writes the resulting state.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(p *player.Player)) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	state := sess.Update(fn, func(state player.State) {
		s.commit(r.Context(), sess.ID, state)
	})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	page, err := s.searcher.Search(r.Context(), q, r.URL.Query().Get("pageToken"))
	if err != nil {
		log.Printf("session: search %q: %v", q, err)
		if errors.Is(err, music.ErrValidation) {
			writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), music.ErrValidation.Error()+": "))
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to search YouTube")
		return
	}

	state := sess.Update(func(p *player.Player) {
		p.SetPlaylist(page.Items)
	}, func(state player.State) {
		s.commit(r.Context(), sess.ID, state)
	})
	writeJSON(w, http.StatusOK, searchResponse{Page: page, State: state})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var t music.Track
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !extractor.ValidVideoID(t.ID) {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	s.mutate(w, r, func(p *player.Player) {
		p.SelectTrack(t)
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(p *player.Player) { p.AdvanceForward() })
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(p *player.Player) { p.AdvanceBackward() })
}

func (s *Server) handleEnded(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(p *player.Player) { p.TrackEnded() })
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(p *player.Player) { p.TogglePlay() })
}

func (s *Server) handleSetPlaying(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Playing *bool `json:"playing"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Playing == nil {
		writeError(w, http.StatusBadRequest, "playing is required")
		return
	}
	s.mutate(w, r, func(p *player.Player) { p.SetPlaying(*body.Playing) })
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume *int `json:"volume"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Volume == nil {
		writeError(w, http.StatusBadRequest, "volume is required")
		return
	}
	s.mutate(w, r, func(p *player.Player) { p.SetVolume(*body.Volume) })
}

func (s *Server) handleSetMuted(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Muted *bool `json:"muted"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.mutate(w, r, func(p *player.Player) {
		if body.Muted == nil {
			p.ToggleMute()
			return
		}
		p.SetMuted(*body.Muted)
	})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Seconds == nil {
		writeError(w, http.StatusBadRequest, "seconds is required")
		return
	}
	s.mutate(w, r, func(p *player.Player) { p.Seek(*body.Seconds) })
}

func (s *Server) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	var t music.Track
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !extractor.ValidVideoID(t.ID) {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}
	s.mutate(w, r, func(p *player.Player) { p.AddToQueue(t) })
}

func (s *Server) handleSetQueue(w http.ResponseWriter, r *http.Request) {
	var tracks []music.Track
	if err := decodeJSON(w, r, &tracks); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	for _, t := range tracks {
		if !extractor.ValidVideoID(t.ID) {
			writeError(w, http.StatusBadRequest, "invalid track id")
			return
		}
	}
	s.mutate(w, r, func(p *player.Player) { p.SetQueue(tracks) })
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(p *player.Player) { p.ClearQueue() })
}

func (s *Server) handleRemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackId")
	s.mutate(w, r, func(p *player.Player) { p.RemoveFromQueue(trackID) })
}
