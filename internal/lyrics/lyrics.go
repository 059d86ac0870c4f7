// Package lyrics reads time-synced .lrc files and finds the active line for
// a playback position.
package lyrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no lyrics file exists for a track
var ErrNotFound = errors.New("lyrics not found")

// Line is one timed lyric line
type Line struct {
	At   time.Duration
	Text string
}

var (
	timeTagRe = regexp.MustCompile(`\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`)
	offsetRe  = regexp.MustCompile(`^\[offset:\s*([+-]?\d+)\]`)
)

// Parse reads LRC content. Lines with several time tags are repeated for each
// tag, metadata tags are skipped, and the result is sorted by time.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	var offset time.Duration

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if m := offsetRe.FindStringSubmatch(raw); m != nil {
			ms, _ := strconv.Atoi(m[1])
			offset = time.Duration(ms) * time.Millisecond
			continue
		}

		tags := timeTagRe.FindAllStringSubmatchIndex(raw, -1)
		if len(tags) == 0 || tags[0][0] != 0 {
			continue
		}

		// tags are contiguous at the start of the line
		end := 0
		var stamps []time.Duration
		for _, loc := range tags {
			if loc[0] != end {
				break
			}
			stamps = append(stamps, stamp(raw, loc))
			end = loc[1]
		}
		text := strings.TrimSpace(raw[end:])
		for _, at := range stamps {
			lines = append(lines, Line{At: at, Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lyrics: %w", err)
	}

	if offset != 0 {
		for i := range lines {
			// positive offset shows lyrics earlier
			lines[i].At -= offset
			if lines[i].At < 0 {
				lines[i].At = 0
			}
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].At < lines[j].At })
	return lines, nil
}

func stamp(s string, loc []int) time.Duration {
	mins, _ := strconv.Atoi(s[loc[2]:loc[3]])
	secs, _ := strconv.Atoi(s[loc[4]:loc[5]])
	d := time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
	if loc[6] >= 0 {
		frac := s[loc[6]:loc[7]]
		n, _ := strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			d += time.Duration(n) * 100 * time.Millisecond
		case 2:
			d += time.Duration(n) * 10 * time.Millisecond
		default:
			d += time.Duration(n) * time.Millisecond
		}
	}
	return d
}

// Index returns the active line for position t: line i is active while
// lines[i].At <= t < lines[i+1].At. It returns -1 before the first line.
func Index(lines []Line, t time.Duration) int {
	return sort.Search(len(lines), func(i int) bool { return lines[i].At > t }) - 1
}

// Store loads lyrics from <dir>/<videoID>.lrc
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory lyrics files are read from
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Load(videoID string) ([]Line, error) {
	if videoID == "" || strings.ContainsAny(videoID, `/\`) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, videoID+".lrc"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
