// Package player holds the playback state of one listener: the current
// track, the playlist it was picked from, an up-next queue and the transport
// controls. A Player is not safe for concurrent use.
package player

import "neontune/internal/music"

const (
	DefaultVolume = 50
	MaxVolume     = 100
)

// State is a serializable snapshot of a Player.
type State struct {
	CurrentTrack *music.Track  `json:"currentTrack"`
	Playlist     []music.Track `json:"playlist"`
	Queue        []music.Track `json:"queue"`
	IsPlaying    bool          `json:"isPlaying"`
	IsLoading    bool          `json:"isLoading"`
	Volume       int           `json:"volume"`
	Muted        bool          `json:"muted"`
	Position     float64       `json:"position"`
}

type Player struct {
	current  *music.Track
	playlist []music.Track
	queue    []music.Track
	playing  bool
	loading  bool
	volume   int
	muted    bool
	position float64
}

func New() *Player {
	return &Player{volume: DefaultVolume}
}

// Restore rebuilds a Player from a snapshot, clamping out-of-range values.
func Restore(s State) *Player {
	p := &Player{
		playlist: cloneTracks(s.Playlist),
		queue:    cloneTracks(s.Queue),
		playing:  s.IsPlaying,
		loading:  s.IsLoading,
		volume:   clampVolume(s.Volume),
		muted:    s.Muted,
		position: s.Position,
	}
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		p.current = &t
	} else {
		p.playing = false
		p.position = 0
	}
	return p
}

func (p *Player) State() State {
	s := State{
		Playlist:  cloneTracks(p.playlist),
		Queue:     cloneTracks(p.queue),
		IsPlaying: p.playing,
		IsLoading: p.loading,
		Volume:    p.volume,
		Muted:     p.muted,
		Position:  p.position,
	}
	if p.current != nil {
		t := *p.current
		s.CurrentTrack = &t
	}
	return s
}

// CurrentTrack returns the selected track, if any.
func (p *Player) CurrentTrack() (music.Track, bool) {
	if p.current == nil {
		return music.Track{}, false
	}
	return *p.current, true
}

func (p *Player) Playlist() []music.Track {
	return cloneTracks(p.playlist)
}

// SetPlaylist replaces the playlist. The current track is left alone even if
// it is not part of the new list.
func (p *Player) SetPlaylist(tracks []music.Track) {
	p.playlist = cloneTracks(tracks)
}

// SelectTrack makes t current without adding it to the playlist.
func (p *Player) SelectTrack(t music.Track) {
	p.setCurrent(t)
}

// AdvanceForward moves to the next playlist entry, wrapping from the last
// to the first. A current track missing from the playlist also restarts at
// the first entry. It reports false, changing nothing, when there is no
// current track or the playlist is empty.
func (p *Player) AdvanceForward() bool {
	if p.current == nil || len(p.playlist) == 0 {
		return false
	}
	i := p.indexOfCurrent()
	next := 0
	if i >= 0 && i < len(p.playlist)-1 {
		next = i + 1
	}
	p.setCurrent(p.playlist[next])
	return true
}

// AdvanceBackward is the mirror of AdvanceForward: the first entry, or a
// current track missing from the playlist, goes to the last entry.
func (p *Player) AdvanceBackward() bool {
	if p.current == nil || len(p.playlist) == 0 {
		return false
	}
	i := p.indexOfCurrent()
	prev := len(p.playlist) - 1
	if i > 0 {
		prev = i - 1
	}
	p.setCurrent(p.playlist[prev])
	return true
}

// TrackEnded handles the end of the current track.
func (p *Player) TrackEnded() bool {
	return p.AdvanceForward()
}

func (p *Player) Queue() []music.Track {
	return cloneTracks(p.queue)
}

func (p *Player) AddToQueue(t music.Track) {
	p.queue = append(p.queue, t)
}

// RemoveFromQueue drops every queued entry with the given id and reports
// whether anything was removed.
func (p *Player) RemoveFromQueue(id string) bool {
	kept := p.queue[:0]
	for _, t := range p.queue {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(p.queue)
	clear(p.queue[len(kept):])
	p.queue = kept
	return removed
}

func (p *Player) ClearQueue() {
	p.queue = nil
}

func (p *Player) SetQueue(tracks []music.Track) {
	p.queue = cloneTracks(tracks)
}

func (p *Player) IsPlaying() bool { return p.playing }

// SetPlaying starts or pauses playback. Playback only starts with a current
// track, and starting it ends the loading phase.
func (p *Player) SetPlaying(playing bool) {
	if playing && p.current == nil {
		return
	}
	p.playing = playing
	if playing {
		p.loading = false
	}
}

// TogglePlay flips play/pause; without a current track it does nothing.
func (p *Player) TogglePlay() {
	p.SetPlaying(!p.playing)
}

func (p *Player) SetLoading(loading bool) {
	p.loading = loading
}

func (p *Player) Volume() int { return p.volume }

// SetVolume clamps v to 0..100. Raising the volume above zero unmutes.
func (p *Player) SetVolume(v int) {
	p.volume = clampVolume(v)
	if p.volume > 0 {
		p.muted = false
	}
}

func (p *Player) ToggleMute() {
	p.muted = !p.muted
}

func (p *Player) SetMuted(muted bool) {
	p.muted = muted
}

func (p *Player) Position() float64 { return p.position }

// Seek moves the playhead, clamped to the track when its duration is known.
// Without a current track it does nothing.
func (p *Player) Seek(seconds float64) {
	if p.current == nil {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if d := float64(p.current.Duration); d > 0 && seconds > d {
		seconds = d
	}
	p.position = seconds
}

func (p *Player) setCurrent(t music.Track) {
	p.current = &t
	p.position = 0
	p.loading = true
	p.playing = false
}

func (p *Player) indexOfCurrent() int {
	for i, t := range p.playlist {
		if t.ID == p.current.ID {
			return i
		}
	}
	return -1
}

func clampVolume(v int) int {
	return max(0, min(v, MaxVolume))
}

func cloneTracks(tracks []music.Track) []music.Track {
	if tracks == nil {
		return []music.Track{}
	}
	out := make([]music.Track, len(tracks))
	copy(out, tracks)
	return out
}
