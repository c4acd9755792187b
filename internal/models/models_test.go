package models

import "testing"

func TestBoundLimit(t *testing.T) {
	tc := []struct {
		name  string
		limit int
		max   int
		want  int
	}{
		{"within range", 10, 50, 10},
		{"at maximum", 50, 50, 50},
		{"above maximum", 1000, 50, 50},
		{"zero", 0, 50, 1},
		{"negative", -3, 50, 1},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoundLimit(tt.limit, tt.max); got != tt.want {
				t.Errorf("BoundLimit(%d, %d) = %d, want %d", tt.limit, tt.max, got, tt.want)
			}
		})
	}
}

func TestValidSearchType(t *testing.T) {
	for _, valid := range []string{"track", "album", "artist", "playlist", "all"} {
		if !ValidSearchType(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"", "podcast", "Track", "tracks"} {
		if ValidSearchType(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestURLBuilders(t *testing.T) {
	if got := TrackURL("123"); got != "https://tidal.com/browse/track/123?u" {
		t.Errorf("unexpected track URL %s", got)
	}
	if got := PlaylistURL("ab-cd"); got != "https://tidal.com/playlist/ab-cd" {
		t.Errorf("unexpected playlist URL %s", got)
	}
	if got := ContentURL("album", "9"); got != "https://tidal.com/browse/album/9" {
		t.Errorf("unexpected content URL %s", got)
	}
}
