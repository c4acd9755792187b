package shared

import "testing"

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		name     string
		platform string
		want     string
	}{
		{"darwin uses open", "darwin", "open"},
		{"linux uses xdg-open", "linux", "xdg-open"},
		{"windows uses cmd start", "windows", "cmd"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			argv := browserCommand(tt.platform, "https://example.com")
			if len(argv) == 0 || argv[0] != tt.want {
				t.Errorf("browserCommand(%q) = %v, want launcher %q", tt.platform, argv, tt.want)
			}
			if argv[len(argv)-1] != "https://example.com" {
				t.Errorf("expected URL as final argument, got %v", argv)
			}
		})
	}

	t.Run("unknown platform", func(t *testing.T) {
		if argv := browserCommand("plan9", "https://example.com"); argv != nil {
			t.Errorf("expected nil for unsupported platform, got %v", argv)
		}
	})
}
