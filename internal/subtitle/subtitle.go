// Package subtitle parses SRT files into an ordered entry list, builds
// the minute-bucket index used by the aligner, and rewrites corrected
// timestamps back out to SRT.
package subtitle

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"subsync/internal/errs"
	"subsync/internal/normalize"
)

// MinChars is the default minimum normalized-bucket length for a
// minute bucket to be considered eligible for alignment.
const MinChars = 40

// Entry is one subtitle cue: a 1-based index, a [Start, End] interval
// in seconds, and the untouched original cue text (which may span
// multiple lines).
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Subtitles is an ordered, parsed SRT track.
type Subtitles struct {
	entries []Entry
}

var timecodeRE = regexp.MustCompile(
	`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// Parse reads path as strict SRT. Any extension other than ".srt"
// fails with *errs.UnsupportedFormat. A malformed entry fails with
// *errs.ParseError naming the offending line.
func Parse(path string) (*Subtitles, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".srt" {
		return nil, &errs.UnsupportedFormat{Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return parseReader(f)
}

func parseReader(f *os.File) (*Subtitles, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []Entry
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Index line.
		idx, err := strconv.Atoi(line)
		if err != nil {
			return nil, &errs.ParseError{Line: lineNo, Msg: "expected cue index, got " + quote(line)}
		}

		if !scanner.Scan() {
			return nil, &errs.ParseError{Line: lineNo + 1, Msg: "expected timecode line, got EOF"}
		}
		lineNo++
		tcLine := strings.TrimSpace(scanner.Text())
		m := timecodeRE.FindStringSubmatch(tcLine)
		if m == nil {
			return nil, &errs.ParseError{Line: lineNo, Msg: "malformed timecode line " + quote(tcLine)}
		}
		start := timecodeSeconds(m[1:5])
		end := timecodeSeconds(m[5:9])
		if start > end {
			return nil, &errs.ParseError{Line: lineNo, Msg: "start time after end time"}
		}

		var textLines []string
		for scanner.Scan() {
			lineNo++
			text := scanner.Text()
			if strings.TrimSpace(text) == "" {
				break
			}
			textLines = append(textLines, text)
		}

		entries = append(entries, Entry{
			Index: idx,
			Start: start,
			End:   end,
			Text:  strings.Join(textLines, "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", "srt", err)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
	for i := range entries {
		entries[i].Index = i + 1
	}

	return &Subtitles{entries: entries}, nil
}

func quote(s string) string { return strconv.Quote(s) }

func timecodeSeconds(groups []string) float64 {
	h, _ := strconv.Atoi(groups[0])
	m, _ := strconv.Atoi(groups[1])
	s, _ := strconv.Atoi(groups[2])
	ms, _ := strconv.Atoi(groups[3])
	return float64(h*3600+m*60+s) + float64(ms)/1000
}

// Entries returns the parsed entries, ordered by start time with
// contiguous 1-based indices.
func (s *Subtitles) Entries() []Entry { return s.entries }

// Duration returns the last entry's end time, used as a fallback
// duration estimate when no external probe is available.
func (s *Subtitles) Duration() float64 {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].End
}

// IndexByMinute builds the minute-bucket map described in spec §3: for
// each entry, its start time floored to a whole minute selects a
// bucket; the bucket's value is the space-joined normalized text of
// every entry whose start falls in that minute.
func (s *Subtitles) IndexByMinute() map[int]string {
	buckets := map[int][]string{}
	for _, e := range s.entries {
		m := int(math.Floor(e.Start / 60))
		buckets[m] = append(buckets[m], normalize.Text(e.Text))
	}
	out := make(map[int]string, len(buckets))
	for m, parts := range buckets {
		out[m] = strings.Join(parts, " ")
	}
	return out
}

// EntriesBetween returns, from index, the minute keys in [mLo, mHi]
// whose bucket text length is >= minChars, sorted ascending.
func EntriesBetween(index map[int]string, mLo, mHi, minChars int) []int {
	var keys []int
	for m, text := range index {
		if m < mLo || m > mHi {
			continue
		}
		if len(text) >= minChars {
			keys = append(keys, m)
		}
	}
	sort.Ints(keys)
	return keys
}

// FormatTimecode renders seconds as SRT's "HH:MM:SS,mmm".
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds*1000+0.5) * time.Millisecond
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	sec := int(d / time.Second)
	d -= time.Duration(sec) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, sec, ms)
}
