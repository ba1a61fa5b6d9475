package bot

import "testing"

func TestSeasonEpisodeRe(t *testing.T) {
	cases := []struct {
		in      string
		season  string
		episode string
		ok      bool
	}{
		{"1 1", "1", "1", true},
		{"  2   10  ", "2", "10", true},
		{"1", "", "", false},
		{"one two", "", "", false},
		{"1 2 3", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		m := seasonEpisodeRe.FindStringSubmatch(c.in)
		if (m != nil) != c.ok {
			t.Errorf("seasonEpisodeRe(%q) matched = %v, want %v", c.in, m != nil, c.ok)
			continue
		}
		if m != nil && (m[1] != c.season || m[2] != c.episode) {
			t.Errorf("seasonEpisodeRe(%q) = %q, %q; want %q, %q", c.in, m[1], m[2], c.season, c.episode)
		}
	}
}
