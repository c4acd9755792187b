package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Transport errors between the tool-server and backend
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrBackendUnavailable = fmt.Errorf("backend service unavailable")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrNotFound         = fmt.Errorf("not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackNotFound    = fmt.Errorf("track not found")

	// Download CLI errors
	ErrToolNotInstalled     = fmt.Errorf("download tool not installed")
	ErrToolNotAuthenticated = fmt.Errorf("download tool not authenticated")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
