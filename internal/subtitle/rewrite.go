package subtitle

import (
	"fmt"
	"io"
)

// MinCueDuration is the floor applied to a rewritten entry's duration
// (spec §4.H).
const MinCueDuration = 0.5

// OffsetFunc evaluates Δ(t) in seconds at time t.
type OffsetFunc func(t float64) float64

// Rewrite applies delta to every entry's start and end, clamping the
// corrected start at 0 and the corrected end at least MinCueDuration
// after the corrected start. Cue text, indices, and entry order are
// untouched.
func Rewrite(entries []Entry, delta OffsetFunc) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		start := e.Start + delta(e.Start)
		if start < 0 {
			start = 0
		}
		end := e.End + delta(e.End)
		if end < start+MinCueDuration {
			end = start + MinCueDuration
		}
		out[i] = Entry{Index: e.Index, Start: start, End: end, Text: e.Text}
	}
	return out
}

// WriteSRT writes entries in strict SRT form: index, timecode line,
// cue text, and a blank separator line. Indices are renumbered
// contiguously from 1 regardless of the input entries' Index field.
func WriteSRT(w io.Writer, entries []Entry) error {
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n",
			i+1, FormatTimecode(e.Start), FormatTimecode(e.End), e.Text); err != nil {
			return err
		}
		if i < len(entries)-1 {
			if _, err := fmt.Fprint(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
