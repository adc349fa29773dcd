package provider

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neontune/internal/music"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestPageCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "lofi", "")
	assert.False(t, ok)

	want := music.NewSearchPage([]music.Track{{ID: "aaaaaaaaaaa", Title: "t", Duration: 12}}, "NEXT")
	cache.Set(ctx, "lofi", "", want)

	got, ok := cache.Get(ctx, "lofi", "")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = cache.Get(ctx, "lofi", "NEXT")
	assert.False(t, ok, "page token is part of the key")

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "lofi", "")
	assert.False(t, ok, "entry expires after ttl")
}

func TestPageCacheNil(t *testing.T) {
	var cache *PageCache
	assert.Nil(t, NewPageCache(nil, time.Minute))

	cache.Set(context.Background(), "q", "", music.NewSearchPage(nil, ""))
	_, ok := cache.Get(context.Background(), "q", "")
	assert.False(t, ok)
}

func TestPageCacheRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewPageCache(rdb, time.Minute)
	mr.Close()

	cache.Set(context.Background(), "q", "", music.NewSearchPage(nil, ""))
	_, ok := cache.Get(context.Background(), "q", "")
	assert.False(t, ok)
}

func TestSearchUsesCache(t *testing.T) {
	_, rdb := newTestRedis(t)

	up := new(MockUpstream)
	up.On("SearchVideos", mock.Anything, "lofi", "").
		Return(VideoPage{Candidates: []Candidate{{VideoID: "aaaaaaaaaaa", Title: "lofi mix"}}}, nil).Once()
	up.On("VideoDurations", mock.Anything, []string{"aaaaaaaaaaa"}).
		Return(map[string]int{"aaaaaaaaaaa": 60}, nil).Once()

	s := NewSearcher(up, NewPageCache(rdb, time.Minute))

	first, err := s.Search(context.Background(), "lofi", "")
	require.NoError(t, err)
	second, err := s.Search(context.Background(), "lofi", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	up.AssertNumberOfCalls(t, "SearchVideos", 1)
	up.AssertNumberOfCalls(t, "VideoDurations", 1)
}
