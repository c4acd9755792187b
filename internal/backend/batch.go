package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Raydius/tidal-dl-mcp/internal/models"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// Worker-pool ceilings for the batch fan-out paths. The TIDAL client is
// stateless over its HTTP client and safe for parallel use; the pools bound
// concurrency and the shared rate limiter bounds request rate.
const (
	searchWorkers        = 4
	maxRecommendWorkers  = 16
	defaultLimitPerQuery = 5
	defaultLimitPerTrack = 20
)

type batchSearchRequest struct {
	Queries       []models.QueryItem `json:"queries"`
	LimitPerQuery int                `json:"limit_per_query"`
}

// handleBatchSearch executes up to 100 independent searches against the shared
// session. Results are index-tagged so output order always matches input
// order, and a single item's failure is captured in its slot without aborting
// the batch.
func (s *Server) handleBatchSearch(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	var req batchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'queries' in request body")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "'queries' must be a non-empty list")
		return
	}
	if len(req.Queries) > maxBatchQueries {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d queries per batch", maxBatchQueries))
		return
	}

	limit := req.LimitPerQuery
	if limit == 0 {
		limit = defaultLimitPerQuery
	}
	limit = models.BoundLimit(limit, maxBatchLimit)

	s.logger.Debug("batch search", "queries", len(req.Queries), "limit_per_query", limit)

	results := make([]models.BatchSearchResult, len(req.Queries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(searchWorkers, len(req.Queries)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.searchOne(r, sess, req.Queries[idx], limit)
			}
		}()
	}
	for i := range req.Queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

// searchOne performs a single batch item search, converting any failure into
// the item's error slot.
func (s *Server) searchOne(r *http.Request, sess *tidal.Session, item models.QueryItem, limit int) models.BatchSearchResult {
	query := strings.TrimSpace(item.Query)
	if query == "" {
		return models.BatchSearchResult{Query: item.Query, Error: "Empty query"}
	}

	searchType := item.Type
	if searchType == "" {
		searchType = "track"
	}
	if !models.ValidSearchType(searchType) {
		searchType = "track"
	}

	if err := s.limiter.Wait(r.Context()); err != nil {
		return models.BatchSearchResult{Query: query, Type: searchType, Error: err.Error()}
	}

	found, err := sess.Search(r.Context(), query, searchType, limit)
	if err != nil {
		return models.BatchSearchResult{Query: query, Type: searchType, Error: err.Error()}
	}

	return models.BatchSearchResult{
		Query:     query,
		Type:      searchType,
		Tracks:    found.Tracks,
		Albums:    found.Albums,
		Artists:   found.Artists,
		Playlists: found.Playlists,
		TopHit:    found.TopHit,
	}
}

// seedID tolerates both string and numeric track ids in request bodies.
type seedID string

func (s *seedID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*s = seedID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("track id must be a string or number")
	}
	*s = seedID(asNumber.String())
	return nil
}

type batchRecommendationsRequest struct {
	TrackIDs         []seedID `json:"track_ids"`
	LimitPerTrack    int      `json:"limit_per_track"`
	RemoveDuplicates *bool    `json:"remove_duplicates"`
}

// accumulator merges radio results from concurrent workers. Insertions happen
// under one lock; when dedup is on, whichever worker reaches the accumulator
// first wins the slot for a given track id.
type accumulator struct {
	mu     sync.Mutex
	dedupe bool
	seen   map[string]struct{}
	tracks []models.Track
}

func newAccumulator(dedupe bool) *accumulator {
	return &accumulator{dedupe: dedupe, seen: make(map[string]struct{})}
}

func (a *accumulator) add(tracks []models.Track) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, track := range tracks {
		if a.dedupe {
			if _, ok := a.seen[track.ID]; ok {
				continue
			}
		}
		a.seen[track.ID] = struct{}{}
		a.tracks = append(a.tracks, track)
	}
}

func (a *accumulator) all() []models.Track {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tracks == nil {
		return []models.Track{}
	}
	return a.tracks
}

// handleBatchRecommendations fans radio lookups for each seed across a worker
// pool sized to the batch and merges them into one flat, unordered sequence.
// A failing seed contributes nothing; it never fails the whole batch.
func (s *Server) handleBatchRecommendations(w http.ResponseWriter, r *http.Request, sess *tidal.Session) {
	var req batchRecommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing track_ids in request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "Missing track_ids in request body")
		return
	}

	limit := req.LimitPerTrack
	if limit == 0 {
		limit = defaultLimitPerTrack
	}
	limit = models.BoundLimit(limit, maxRadioLimit)

	dedupe := true
	if req.RemoveDuplicates != nil {
		dedupe = *req.RemoveDuplicates
	}

	acc := newAccumulator(dedupe)
	seeds := make(chan string)

	var wg sync.WaitGroup
	for range min(maxRecommendWorkers, len(req.TrackIDs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Workers must drain the channel even on a canceled context,
			// or the feeder below blocks forever.
			for id := range seeds {
				if err := s.limiter.Wait(r.Context()); err != nil {
					continue
				}
				tracks, err := sess.TrackRadio(r.Context(), id, limit)
				if err != nil {
					s.logger.Warn("radio lookup failed", "track_id", id, "err", err)
					continue
				}
				acc.add(tracks)
			}
		}()
	}
	for _, id := range req.TrackIDs {
		seeds <- string(id)
	}
	close(seeds)
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"recommendations": acc.all()})
}
