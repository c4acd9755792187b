// package models defines the wire records exchanged between the backend process
// and the tool-server.
//
// The opaque streaming client's objects are converted into these records exactly
// once, at the backend boundary. Optional attributes the remote API may omit are
// explicit fields with documented zero values rather than dynamic lookups.
package models

import "fmt"

// Track represents a single track record.
//
// Duration is in seconds and 0 when the API omits it. SourceTrackID is set only
// on radio results and names the seed track that produced the recommendation.
type Track struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	Duration      int    `json:"duration"`
	URL           string `json:"url"`
	SourceTrackID string `json:"source_track_id,omitempty"`
}

// Album represents an album record. ReleaseDate is empty when unknown.
type Album struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseDate string `json:"release_date,omitempty"`
	NumTracks   int    `json:"num_tracks"`
	Duration    int    `json:"duration"`
	URL         string `json:"url"`
}

// Artist represents an artist record.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Playlist represents a playlist record. Created and LastUpdated are RFC 3339
// timestamps, empty when the API omits them.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Created     string `json:"created,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	NumTracks   int    `json:"num_tracks"`
	Duration    int    `json:"duration"`
	URL         string `json:"url"`
}

// TopHit is the most relevant result of a search. Type is one of track, album,
// artist, or playlist and Data holds the matching record.
type TopHit struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SearchResults groups search hits by content type. Slices are nil for types the
// query did not cover and TopHit is nil when the API returned none.
type SearchResults struct {
	Tracks    []Track    `json:"tracks,omitempty"`
	Albums    []Album    `json:"albums,omitempty"`
	Artists   []Artist   `json:"artists,omitempty"`
	Playlists []Playlist `json:"playlists,omitempty"`
	TopHit    *TopHit    `json:"top_hit,omitempty"`
}

// BatchSearchResult is one slot of a batch search response. Exactly one of the
// result fields or Error is populated; Error carries a per-item failure without
// aborting the batch.
type BatchSearchResult struct {
	Query     string     `json:"query"`
	Type      string     `json:"type,omitempty"`
	Tracks    []Track    `json:"tracks,omitempty"`
	Albums    []Album    `json:"albums,omitempty"`
	Artists   []Artist   `json:"artists,omitempty"`
	Playlists []Playlist `json:"playlists,omitempty"`
	TopHit    *TopHit    `json:"top_hit,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// QueryItem is a single item of a batch search request.
type QueryItem struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// User identifies the authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// TrackURL returns the public TIDAL URL for a track ID.
func TrackURL(id string) string {
	return fmt.Sprintf("https://tidal.com/browse/track/%s?u", id)
}

// AlbumURL returns the public TIDAL URL for an album ID.
func AlbumURL(id string) string {
	return fmt.Sprintf("https://tidal.com/browse/album/%s", id)
}

// ArtistURL returns the public TIDAL URL for an artist ID.
func ArtistURL(id string) string {
	return fmt.Sprintf("https://tidal.com/browse/artist/%s", id)
}

// PlaylistURL returns the public TIDAL URL for a playlist ID.
func PlaylistURL(id string) string {
	return fmt.Sprintf("https://tidal.com/playlist/%s", id)
}

// ContentURL builds the browse URL handed to the download CLI.
func ContentURL(contentType, id string) string {
	return fmt.Sprintf("https://tidal.com/browse/%s/%s", contentType, id)
}

// ValidSearchType reports whether t is an accepted search content type.
func ValidSearchType(t string) bool {
	switch t {
	case "track", "album", "artist", "playlist", "all":
		return true
	}
	return false
}

// BoundLimit clamps limit into [1, max].
func BoundLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
