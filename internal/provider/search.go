package provider

import (
	"context"
	"fmt"
	"strings"

	"neontune/internal/music"
)

const maxQueryLen = 200

// Upstream is the video platform the searcher ranks results from.
type Upstream interface {
	SearchVideos(ctx context.Context, query, pageToken string) (VideoPage, error)
	VideoDurations(ctx context.Context, ids []string) (map[string]int, error)
}

// Searcher runs a query against the upstream, keeps only results matching
// every query term and attaches durations to the survivors.
type Searcher struct {
	upstream Upstream
	cache    *PageCache
}

// NewSearcher returns a Searcher. cache may be nil.
func NewSearcher(up Upstream, cache *PageCache) *Searcher {
	return &Searcher{
		upstream: up,
		cache:    cache,
	}
}

func (s *Searcher) Search(ctx context.Context, query, pageToken string) (music.SearchPage, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return music.SearchPage{}, fmt.Errorf("%w: query is required", music.ErrValidation)
	}
	if len(q) > maxQueryLen {
		return music.SearchPage{}, fmt.Errorf("%w: query is too long", music.ErrValidation)
	}

	if page, ok := s.cache.Get(ctx, q, pageToken); ok {
		return page, nil
	}

	raw, err := s.upstream.SearchVideos(ctx, q, pageToken)
	if err != nil {
		return music.SearchPage{}, err
	}

	survivors := filterCandidates(raw.Candidates, searchTerms(q))
	if len(survivors) == 0 {
		page := music.NewSearchPage(nil, "")
		s.cache.Set(ctx, q, pageToken, page)
		return page, nil
	}

	ids := make([]string, len(survivors))
	for i, c := range survivors {
		ids[i] = c.VideoID
	}
	durations, err := s.upstream.VideoDurations(ctx, ids)
	if err != nil {
		return music.SearchPage{}, err
	}

	tracks := make([]music.Track, len(survivors))
	for i, c := range survivors {
		tracks[i] = music.Track{
			ID:        c.VideoID,
			Title:     c.Title,
			Artist:    c.Channel,
			Thumbnail: c.Thumbnail,
			Duration:  durations[c.VideoID],
		}
	}

	page := music.NewSearchPage(tracks, raw.NextPageToken)
	s.cache.Set(ctx, q, pageToken, page)
	return page, nil
}
