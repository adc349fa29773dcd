package music

// Track is a playable audio item resolved from a YouTube search result.
// It is built once from the search and detail responses and never mutated.
type Track struct {
	ID        string `json:"id"`        // 11-char YouTube video ID
	Title     string `json:"title"`     // video title
	Artist    string `json:"artist"`    // channel name
	Thumbnail string `json:"thumbnail"` // best available thumbnail URL
	Duration  int    `json:"duration"`  // whole seconds, 0 when unknown
}

// SearchPage is one page of filtered search results.
// TotalResults always equals len(Items): it counts survivors of the keyword
// filter, not the upstream total.
type SearchPage struct {
	Items         []Track `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	TotalResults  int     `json:"totalResults"`
}

// NewSearchPage builds a page whose TotalResults matches its items.
func NewSearchPage(items []Track, nextPageToken string) SearchPage {
	if items == nil {
		items = []Track{}
	}
	return SearchPage{
		Items:         items,
		NextPageToken: nextPageToken,
		TotalResults:  len(items),
	}
}
