package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/venue"
)

// MemStore is an in-memory implementation of RatingStore and
// VenueFactorStore for tests and dry runs. Histories are append-only
// slices; callers append in non-decreasing date order.
type MemStore struct {
	mu       sync.RWMutex
	ratings  map[string]map[model.Discipline][]model.Rated
	markers  map[string]struct{}
	profiles map[profileKey]venue.Profile
}

type profileKey struct {
	venue  string
	season string
}

var (
	_ RatingStore      = (*MemStore)(nil)
	_ VenueFactorStore = (*MemStore)(nil)
)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		ratings:  make(map[string]map[model.Discipline][]model.Rated),
		markers:  make(map[string]struct{}),
		profiles: make(map[profileKey]venue.Profile),
	}
}

// GetLatest returns the last appended entry for a player and discipline.
func (s *MemStore) GetLatest(_ context.Context, player string, d model.Discipline) (model.Rated, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.ratings[player][d]
	if len(history) == 0 {
		return model.Rated{}, false, nil
	}
	return history[len(history)-1], true, nil
}

// GetBatch returns the latest entry per discipline for each named player.
func (s *MemStore) GetBatch(_ context.Context, players []string) (map[string]map[model.Discipline]model.Rated, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[model.Discipline]model.Rated, len(players))
	for _, p := range players {
		for d, history := range s.ratings[p] {
			if len(history) == 0 {
				continue
			}
			if out[p] == nil {
				out[p] = make(map[model.Discipline]model.Rated, 2)
			}
			out[p][d] = history[len(history)-1]
		}
	}
	return out, nil
}

// Append adds one history entry, creating the player record if absent.
func (s *MemStore) Append(ctx context.Context, e model.RatingEntry) error {
	return s.AppendBatch(ctx, []model.RatingEntry{e})
}

// AppendBatch adds many history entries in one write.
func (s *MemStore) AppendBatch(_ context.Context, entries []model.RatingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if s.ratings[e.Player] == nil {
			s.ratings[e.Player] = make(map[model.Discipline][]model.Rated, 2)
		}
		s.ratings[e.Player][e.Discipline] = append(s.ratings[e.Player][e.Discipline], model.Rated{
			Date:   e.Date,
			Rating: e.Rating,
		})
	}
	return nil
}

// ListPlayers returns every player with rating history, sorted.
func (s *MemStore) ListPlayers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.ratings))
	for n := range s.ratings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// History returns a copy of a player's full history in a discipline.
func (s *MemStore) History(_ context.Context, player string, d model.Discipline) []model.Rated {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.ratings[player][d]
	out := make([]model.Rated, len(history))
	copy(out, history)
	return out
}

// HasMarker reports whether a match was already processed.
func (s *MemStore) HasMarker(_ context.Context, matchID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.markers[matchID]
	return ok, nil
}

// WriteMarker records a match as processed.
func (s *MemStore) WriteMarker(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers[matchID] = struct{}{}
	return nil
}

// ClearAll removes all ratings and markers. Venue profiles survive a reset.
func (s *MemStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings = make(map[string]map[model.Discipline][]model.Rated)
	s.markers = make(map[string]struct{})
	return nil
}

// Get returns the stored profile for a venue and season.
func (s *MemStore) Get(_ context.Context, name, season string) (venue.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[profileKey{venue: name, season: season}]
	if !ok {
		return venue.Profile{}, ErrNotFound
	}
	return p, nil
}

// PutAll upserts the given profiles.
func (s *MemStore) PutAll(_ context.Context, profiles []venue.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range profiles {
		s.profiles[profileKey{venue: p.Venue, season: p.Season}] = p
	}
	return nil
}
