package extractor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"neontune/internal/music"
)

const (
	watchURL   = "https://www.youtube.com/watch?v="
	sniffLen   = 512
	readerSize = 64 * 1024
	stderrTail = 2048
	waitDelay  = 5 * time.Second
)

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id has the shape of a YouTube video ID.
func ValidVideoID(id string) bool {
	return videoIDRE.MatchString(id)
}

// CommandFunc builds the extractor process for a watch-page URL.
type CommandFunc func(ctx context.Context, url string) *exec.Cmd

// YTDLP streams the best audio format of a video through yt-dlp's stdout.
type YTDLP struct {
	command CommandFunc
}

// New returns an extractor that runs the yt-dlp found on PATH.
func New() *YTDLP {
	return &YTDLP{command: ytdlpCommand}
}

// NewWithCommand swaps the process builder; used to run a stand-in binary.
func NewWithCommand(fn CommandFunc) *YTDLP {
	return &YTDLP{command: fn}
}

func ytdlpCommand(ctx context.Context, url string) *exec.Cmd {
	return ytdlp.New().
		Format("bestaudio").
		Output("-").
		NoPlaylist().
		Quiet().
		NoWarnings().
		BuildCommand(ctx, url)
}

// Stream starts the extractor for videoID and returns once the first chunk
// of audio is available. A process that exits without output is reported as
// music.ErrExtraction. The caller must Close the stream, which kills the
// process if it is still running.
func (y *YTDLP) Stream(ctx context.Context, videoID string) (*Stream, error) {
	if !ValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: invalid video id %q", music.ErrValidation, videoID)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := y.command(ctx, watchURL+videoID)

	pr, pw := io.Pipe()
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stdout = pw
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		cancel()
		_ = pw.Close()
		return nil, fmt.Errorf("%w: starting yt-dlp: %v", music.ErrExtraction, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := cmd.Wait()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			err = ctx.Err()
		default:
			err = fmt.Errorf("%w: yt-dlp: %v: %s", music.ErrExtraction, err, stderr.String())
		}
		pw.CloseWithError(err)
	}()

	s := &Stream{
		reader: bufio.NewReaderSize(pr, readerSize),
		cancel: cancel,
		pipe:   pr,
		done:   done,
	}

	// Block for the first chunk only; the sniff uses whatever it carried.
	head, err := s.reader.Peek(1)
	if len(head) == 0 {
		s.Close()
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: yt-dlp produced no audio for %s", music.ErrExtraction, videoID)
		}
		if errors.Is(err, music.ErrExtraction) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", music.ErrExtraction, err)
	}

	head, _ = s.reader.Peek(min(s.reader.Buffered(), sniffLen))
	s.ContentType = sniffContentType(head)
	return s, nil
}

// Stream is a running extraction. Reads return audio bytes; a failed
// extractor surfaces as a read error wrapping music.ErrExtraction.
type Stream struct {
	ContentType string

	reader    *bufio.Reader
	cancel    context.CancelFunc
	pipe      *io.PipeReader
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.pipe.Close()
		<-s.done
	})
	return nil
}

// sniffContentType maps the container magic of the first bytes to a MIME
// type. YouTube's bestaudio is usually WebM/Opus, which is also the default.
func sniffContentType(head []byte) string {
	switch {
	case hasPrefix(head, "\x1a\x45\xdf\xa3"):
		return "audio/webm"
	case hasPrefix(head, "OggS"):
		return "audio/ogg"
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return "audio/mp4"
	case hasPrefix(head, "fLaC"):
		return "audio/flac"
	case hasPrefix(head, "ID3"), len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0:
		return "audio/mpeg"
	default:
		return "audio/webm"
	}
}

func hasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
