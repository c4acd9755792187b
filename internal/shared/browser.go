package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the launcher command line for a URL on the given
// platform, or nil when the platform has no known launcher.
func browserCommand(platform, url string) []string {
	switch platform {
	case "darwin":
		return []string{"open", url}
	case "linux":
		return []string{"xdg-open", url}
	case "windows":
		return []string{"cmd", "/c", "start", url}
	}
	return nil
}

// OpenBrowser hands the URL to the system's default browser and returns
// without waiting. The device-authorization login flow uses this to present
// the verification page; callers fall back to printing the URL when it fails.
func OpenBrowser(url string) error {
	argv := browserCommand(runtime.GOOS, url)
	if argv == nil {
		return fmt.Errorf("no browser launcher for platform %s", runtime.GOOS)
	}

	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
