package normalize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"html tags", "<i>Hello</i> world", "hello world"},
		{"bracketed cue", "[door slam] Get down!", "get down!"},
		{"musical notes", "♪ music ♪", "music"},
		{"speaker label", "JOHN: Where are you going?", "where are you going?"},
		{"parenthesized", "I (sighs) don't know", "i don't know"},
		{"asterisk emphasis", "*laughs* that's funny", "that's funny"},
		{"whitespace collapse", "a   b\tc\n d", "a b c d"},
		{"mixed noise", "[SDH] JOHN: <b>Hi</b> ♪ la ♪", "hi la"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Text(c.in)
			if got != c.want {
				t.Errorf("Text(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"<i>[door slam]</i> JOHN: Hello *there* ♪ la ♪",
		"plain text already normalized",
		"",
		"   spaced   out   ",
	}
	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Errorf("Text not idempotent: Text(%q)=%q, Text(that)=%q", in, once, twice)
		}
	}
}
