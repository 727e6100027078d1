package repository_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/creaselab/crease/internal/adapters/repository"
	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/venue"
	. "github.com/smartystreets/goconvey/convey"
)

// store is the union of the two contracts both implementations satisfy.
type store interface {
	repository.RatingStore
	repository.VenueFactorStore
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openStores(t *testing.T) map[string]store {
	t.Helper()
	sqlite, err := repository.OpenSQLiteStore(filepath.Join(t.TempDir(), "crease.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]store{
		"memory": repository.NewMemStore(),
		"sqlite": sqlite,
	}
}

func TestRatingStore(t *testing.T) {
	for name, s := range openStores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			ctx := t.Context()

			Convey("Then an unknown player has no latest rating", func() {
				_, ok, err := s.GetLatest(ctx, "MS Dhoni", model.Batting)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("When entries are appended in date order", func() {
				So(s.AppendBatch(ctx, []model.RatingEntry{
					{Player: "MS Dhoni", Discipline: model.Batting, Date: day(2019, 3, 23), Rating: 1210},
					{Player: "MS Dhoni", Discipline: model.Batting, Date: day(2019, 3, 26), Rating: 1224.5},
					{Player: "MS Dhoni", Discipline: model.Bowling, Date: day(2019, 3, 26), Rating: 1195},
					{Player: "DL Chahar", Discipline: model.Bowling, Date: day(2019, 3, 26), Rating: 1240},
				}), ShouldBeNil)

				Convey("Then the latest entry wins per discipline", func() {
					latest, ok, err := s.GetLatest(ctx, "MS Dhoni", model.Batting)
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(latest.Rating, ShouldEqual, 1224.5)
					So(latest.Date.Equal(day(2019, 3, 26)), ShouldBeTrue)
				})

				Convey("Then a batch read covers all named players", func() {
					batch, err := s.GetBatch(ctx, []string{"MS Dhoni", "DL Chahar", "Unknown"})
					So(err, ShouldBeNil)
					So(batch["MS Dhoni"][model.Batting].Rating, ShouldEqual, 1224.5)
					So(batch["MS Dhoni"][model.Bowling].Rating, ShouldEqual, 1195)
					So(batch["DL Chahar"][model.Bowling].Rating, ShouldEqual, 1240)
					So(batch, ShouldNotContainKey, "Unknown")
				})

				Convey("Then ListPlayers is sorted and complete", func() {
					players, err := s.ListPlayers(ctx)
					So(err, ShouldBeNil)
					So(players, ShouldResemble, []string{"DL Chahar", "MS Dhoni"})
				})

				Convey("And ClearAll wipes histories", func() {
					So(s.ClearAll(ctx), ShouldBeNil)
					players, err := s.ListPlayers(ctx)
					So(err, ShouldBeNil)
					So(players, ShouldBeEmpty)
				})
			})

			Convey("When a single entry is appended", func() {
				So(s.Append(ctx, model.RatingEntry{
					Player: "R Ashwin", Discipline: model.Bowling, Date: day(2020, 9, 19), Rating: 1302,
				}), ShouldBeNil)

				latest, ok, err := s.GetLatest(ctx, "R Ashwin", model.Bowling)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(latest.Rating, ShouldEqual, 1302)

				So(s.ClearAll(ctx), ShouldBeNil)
			})
		})
	}
}

func TestMarkers(t *testing.T) {
	for name, s := range openStores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			ctx := t.Context()

			Convey("Then no marker exists for a fresh match", func() {
				has, err := s.HasMarker(ctx, "335982")
				So(err, ShouldBeNil)
				So(has, ShouldBeFalse)
			})

			Convey("When a marker is written", func() {
				So(s.WriteMarker(ctx, "335982"), ShouldBeNil)

				Convey("Then it exists and rewriting is idempotent", func() {
					So(s.WriteMarker(ctx, "335982"), ShouldBeNil)
					has, err := s.HasMarker(ctx, "335982")
					So(err, ShouldBeNil)
					So(has, ShouldBeTrue)
				})

				Convey("And ClearAll removes it", func() {
					So(s.ClearAll(ctx), ShouldBeNil)
					has, err := s.HasMarker(ctx, "335982")
					So(err, ShouldBeNil)
					So(has, ShouldBeFalse)
				})
			})
		})
	}
}

func TestVenueFactorStore(t *testing.T) {
	for name, s := range openStores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			ctx := t.Context()

			Convey("Then an unknown venue reports ErrNotFound", func() {
				_, err := s.Get(ctx, "Eden Gardens", "")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When profiles are bulk upserted", func() {
				profiles := []venue.Profile{
					{Venue: "Eden Gardens", Batting: map[string]float64{"4": 0.82}, Bowling: map[string]float64{"4": 0.22, "wide": 0.2}},
					{Venue: "Eden Gardens", Season: "2021", Batting: map[string]float64{"4": 0.79}, Bowling: map[string]float64{"4": 0.24, "wide": 0.2}},
				}
				So(s.PutAll(ctx, profiles), ShouldBeNil)

				Convey("Then whole-history and seasonal profiles are distinct", func() {
					p, err := s.Get(ctx, "Eden Gardens", "")
					So(err, ShouldBeNil)
					So(p.Batting["4"], ShouldEqual, 0.82)

					p, err = s.Get(ctx, "Eden Gardens", "2021")
					So(err, ShouldBeNil)
					So(p.Batting["4"], ShouldEqual, 0.79)
					So(p.Season, ShouldEqual, "2021")
				})

				Convey("Then a second write overwrites wholesale", func() {
					So(s.PutAll(ctx, []venue.Profile{
						{Venue: "Eden Gardens", Batting: map[string]float64{"4": 0.85}, Bowling: map[string]float64{"4": 0.2}},
					}), ShouldBeNil)

					p, err := s.Get(ctx, "Eden Gardens", "")
					So(err, ShouldBeNil)
					So(p.Batting["4"], ShouldEqual, 0.85)
				})

				Convey("Then profiles survive a rating reset", func() {
					So(s.ClearAll(ctx), ShouldBeNil)
					_, err := s.Get(ctx, "Eden Gardens", "")
					So(err, ShouldBeNil)
				})
			})
		})
	}
}
