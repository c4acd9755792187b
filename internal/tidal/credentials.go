package tidal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Credentials is the on-disk session credential record. The file is the only
// persisted state in the system; it survives process restarts and is shared
// with nothing but this package.
type Credentials struct {
	TokenType    string    `json:"token_type"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id,omitempty"`
	CountryCode  string    `json:"country_code,omitempty"`
}

// LoadCredentials reads and parses the credential file. A missing file or a
// parse failure (possibly a concurrent writer mid-update) is returned as an
// error for the caller to treat as "no session".
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}

	if creds.AccessToken == "" {
		return nil, fmt.Errorf("credential file has no access token")
	}

	return &creds, nil
}

// SaveCredentials writes the credential file using atomic replace so a
// concurrent reader never observes a partially written file.
func SaveCredentials(path string, creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tidal-session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp credential file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace credential file: %w", err)
	}

	return os.Chmod(path, 0o600)
}

// RemoveCredentials deletes the credential file. A missing file is not an error.
func RemoveCredentials(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}
