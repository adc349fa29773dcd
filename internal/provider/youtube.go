package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"neontune/internal/music"
)

const (
	// DefaultAPIURL is the YouTube Data API v3 base URL.
	DefaultAPIURL = "https://www.googleapis.com/youtube/v3"

	searchMaxResults = 50
	maxResponseBytes = 4 << 20
)

// Candidate is a raw search hit before keyword filtering.
type Candidate struct {
	VideoID   string
	Title     string
	Channel   string
	Thumbnail string
}

// VideoPage is one upstream search page.
type VideoPage struct {
	Candidates    []Candidate
	NextPageToken string
}

// YouTubeClient talks to the YouTube Data API. Every call walks the
// configured keys in order and stops at the first one that succeeds.
type YouTubeClient struct {
	apiKeys []string
	baseURL string
	http    *http.Client
}

func NewYouTubeClient(apiKeys []string, baseURL string, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &YouTubeClient{
		apiKeys: keys,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type ytThumbnail struct {
	URL string `json:"url"`
}

type ytSearchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Default ytThumbnail `json:"default"`
				Medium  ytThumbnail `json:"medium"`
				High    ytThumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ytErrorEnvelope catches quota and key errors that come back in the body.
type ytErrorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SearchVideos fetches up to 50 video candidates for query.
func (c *YouTubeClient) SearchVideos(ctx context.Context, query, pageToken string) (VideoPage, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprint(searchMaxResults))
	params.Set("q", query)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var body ytSearchResponse
	if err := c.getWithFallback(ctx, "search", params, &body); err != nil {
		return VideoPage{}, err
	}

	page := VideoPage{
		Candidates:    make([]Candidate, 0, len(body.Items)),
		NextPageToken: body.NextPageToken,
	}
	for _, it := range body.Items {
		if it.ID.VideoID == "" {
			continue
		}
		thumbs := it.Snippet.Thumbnails
		thumb := thumbs.Medium.URL
		if thumb == "" {
			thumb = thumbs.High.URL
		}
		if thumb == "" {
			thumb = thumbs.Default.URL
		}
		if thumb == "" {
			thumb = thumbnailURL(it.ID.VideoID)
		}

		page.Candidates = append(page.Candidates, Candidate{
			VideoID:   it.ID.VideoID,
			Title:     it.Snippet.Title,
			Channel:   it.Snippet.ChannelTitle,
			Thumbnail: thumb,
		})
	}
	return page, nil
}

// VideoDurations resolves durations, in seconds, for ids in a single call.
// IDs missing from the response are absent from the map.
func (c *YouTubeClient) VideoDurations(ctx context.Context, ids []string) (map[string]int, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var body ytVideosResponse
	if err := c.getWithFallback(ctx, "videos", params, &body); err != nil {
		return nil, err
	}

	durations := make(map[string]int, len(body.Items))
	for _, item := range body.Items {
		durations[item.ID] = parseISO8601Duration(item.ContentDetails.Duration)
	}
	return durations, nil
}

func (c *YouTubeClient) getWithFallback(ctx context.Context, endpoint string, params url.Values, out any) error {
	if len(c.apiKeys) == 0 {
		return fmt.Errorf("%w: no YouTube API key configured", music.ErrConfiguration)
	}

	var lastErr error
	for i, key := range c.apiKeys {
		err := c.get(ctx, endpoint, params, key, out)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("provider: youtube %s with key #%d failed: %v", endpoint, i+1, err)
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%w: youtube %s: %v", music.ErrUpstreamUnavailable, endpoint, lastErr)
}

// get performs one attempt with one key. Transport errors, non-2xx statuses
// and 2xx bodies carrying an "error" object all count as failures.
func (c *YouTubeClient) get(ctx context.Context, endpoint string, params url.Values, key string, out any) error {
	q := make(url.Values, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("youtube status %d", resp.StatusCode)
	}

	var env ytErrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode youtube %s: %w", endpoint, err)
	}
	if env.Error != nil {
		return fmt.Errorf("youtube error %d: %s", env.Error.Code, env.Error.Message)
	}

	return json.Unmarshal(raw, out)
}

func thumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/mqdefault.jpg"
}
