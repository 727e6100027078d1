// Package repository defines the rating and venue factor store contracts.
package repository

import (
	"context"
	"time"

	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/venue"
)

// dateLayout is the on-disk date format, matching the source match files.
const dateLayout = "2006-01-02"

// RatingStore provides append-only access to player rating histories and to
// the processed-match markers guarding exactly-once application.
//
// History entries are never mutated in place, which keeps concurrent
// readers safe while a pipeline run is appending.
type RatingStore interface {
	// GetLatest returns the most recent entry for a player and discipline.
	// The boolean is false when the player has no history there.
	GetLatest(ctx context.Context, player string, d model.Discipline) (model.Rated, bool, error)

	// GetBatch returns the latest entry per discipline for each named
	// player in one read. Players without history are absent from the map.
	GetBatch(ctx context.Context, players []string) (map[string]map[model.Discipline]model.Rated, error)

	// Append adds one history entry, creating the player record if absent.
	Append(ctx context.Context, e model.RatingEntry) error

	// AppendBatch adds many history entries in one write, atomic per entry.
	AppendBatch(ctx context.Context, entries []model.RatingEntry) error

	// ListPlayers returns every player with rating history, sorted.
	ListPlayers(ctx context.Context) ([]string, error)

	// HasMarker reports whether a match was already folded into history.
	HasMarker(ctx context.Context, matchID string) (bool, error)

	// WriteMarker records a match as processed; idempotent under retry.
	WriteMarker(ctx context.Context, matchID string) error

	// ClearAll removes all ratings and markers for a forced reprocess.
	ClearAll(ctx context.Context) error
}

// VenueFactorStore provides read/write access to venue factor profiles.
// Profiles are written wholesale, never patched.
type VenueFactorStore interface {
	// Get returns the profile for a venue, scoped to a season when season
	// is non-empty. Returns ErrNotFound when absent.
	Get(ctx context.Context, name, season string) (venue.Profile, error)

	// PutAll upserts the given profiles in one bulk write.
	PutAll(ctx context.Context, profiles []venue.Profile) error
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func parseDate(s string) (time.Time, error) { return time.Parse(dateLayout, s) }
