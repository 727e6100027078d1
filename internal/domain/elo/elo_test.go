package elo_test

import (
	"testing"
	"time"

	"github.com/creaselab/crease/internal/domain/elo"
	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/venue"
	. "github.com/smartystreets/goconvey/convey"
)

func matchWith(balls ...model.BallEvent) model.MatchContext {
	return model.MatchContext{
		ID:    "1",
		Venue: "Test Oval",
		Date:  time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		Balls: balls,
	}
}

func profileWith(batting, bowling map[string]float64) venue.Profile {
	return venue.Profile{Venue: "Test Oval", Batting: batting, Bowling: bowling}
}

func ratingOf(entries []model.RatingEntry, player string, d model.Discipline) (float64, bool) {
	for _, e := range entries {
		if e.Player == player && e.Discipline == d {
			return e.Rating, true
		}
	}
	return 0, false
}

func TestExpected(t *testing.T) {
	Convey("Given the logistic expectation", t, func() {
		Convey("Then equal ratings expect one half", func() {
			So(elo.Expected(1000, 1000), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("Then expectations of a pair sum to one", func() {
			for _, pair := range [][2]float64{{1000, 1000}, {1200, 900}, {850, 1431}, {2000, 100}} {
				sum := elo.Expected(pair[0], pair[1]) + elo.Expected(pair[1], pair[0])
				So(sum, ShouldAlmostEqual, 1, 1e-12)
			}
		})

		Convey("Then a 400 point edge expects about ten-to-one", func() {
			So(elo.Expected(1400, 1000), ShouldAlmostEqual, 10.0/11.0, 1e-12)
		})
	})
}

func TestUpdateMatch(t *testing.T) {
	Convey("Given an engine with default rating 1000 and K 10", t, func() {
		engine := elo.NewEngine(elo.WithDefaultRating(1000), elo.WithKFactor(10))

		Convey("When player A hits player B for four", func() {
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 4})
			p := profileWith(map[string]float64{"4": 0.8}, map[string]float64{"4": 0.2})
			entries := engine.UpdateMatch(t.Context(), m, p, nil)

			Convey("Then the batter gains and the bowler loses symmetrically around the targets", func() {
				bat, ok := ratingOf(entries, "A", model.Batting)
				So(ok, ShouldBeTrue)
				So(bat, ShouldAlmostEqual, 1003, 1e-9)

				bowl, ok := ratingOf(entries, "B", model.Bowling)
				So(ok, ShouldBeTrue)
				So(bowl, ShouldAlmostEqual, 997, 1e-9)
			})

			Convey("Then no cross-discipline entries are produced", func() {
				_, ok := ratingOf(entries, "A", model.Bowling)
				So(ok, ShouldBeFalse)
				_, ok = ratingOf(entries, "B", model.Batting)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a wicket falls between equal ratings", func() {
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", WicketType: "bowled"})
			p := profileWith(map[string]float64{"wicket": 0}, map[string]float64{"wicket": 1})
			entries := engine.UpdateMatch(t.Context(), m, p, nil)

			bat, _ := ratingOf(entries, "A", model.Batting)
			bowl, _ := ratingOf(entries, "B", model.Bowling)
			So(bat, ShouldAlmostEqual, 995, 1e-9)
			So(bowl, ShouldAlmostEqual, 1005, 1e-9)
		})

		Convey("When a match contains only run outs", func() {
			m := matchWith(
				model.BallEvent{Striker: "A", Bowler: "B", WicketType: "run out"},
				model.BallEvent{Striker: "C", Bowler: "B", WicketType: "run out", RunsOffBat: 1},
			)
			entries := engine.UpdateMatch(t.Context(), m, profileWith(nil, nil), nil)

			Convey("Then no ratings change at all", func() {
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the outcome factor equals the expectation", func() {
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 2})
			p := profileWith(map[string]float64{"2": 0.5}, map[string]float64{"2": 0.5})
			entries := engine.UpdateMatch(t.Context(), m, p, nil)

			Convey("Then the update is a no-op", func() {
				bat, _ := ratingOf(entries, "A", model.Batting)
				bowl, _ := ratingOf(entries, "B", model.Bowling)
				So(bat, ShouldAlmostEqual, 1000, 1e-9)
				So(bowl, ShouldAlmostEqual, 1000, 1e-9)
			})
		})

		Convey("When an outcome is missing from the factor tables", func() {
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 3})
			entries := engine.UpdateMatch(t.Context(), m, profileWith(nil, nil), nil)

			Convey("Then the neutral 0.5 target leaves equal ratings unchanged", func() {
				bat, _ := ratingOf(entries, "A", model.Batting)
				So(bat, ShouldAlmostEqual, 1000, 1e-9)
			})
		})

		Convey("When seeds carry prior ratings", func() {
			seeds := elo.Seeds{
				"A": {model.Batting: model.Rated{Rating: 1100}},
				"B": {model.Bowling: model.Rated{Rating: 900}},
			}
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 0})
			p := profileWith(map[string]float64{"0": 0.3}, map[string]float64{"0": 0.7})
			entries := engine.UpdateMatch(t.Context(), m, p, seeds)

			Convey("Then updates start from the stored ratings", func() {
				eBat := elo.Expected(1100, 900)
				bat, _ := ratingOf(entries, "A", model.Batting)
				So(bat, ShouldAlmostEqual, 1100+10*(0.3-eBat), 1e-9)
			})
		})

		Convey("When the same pair faces many deliveries", func() {
			m := matchWith(
				model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 4},
				model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 4},
			)
			p := profileWith(map[string]float64{"4": 0.8}, map[string]float64{"4": 0.2})
			entries := engine.UpdateMatch(t.Context(), m, p, nil)

			Convey("Then exactly one entry per player per discipline is produced", func() {
				So(entries, ShouldHaveLength, 2)
			})

			Convey("Then the second ball starts from the first ball's working rating", func() {
				e2 := elo.Expected(1003, 997)
				bat, _ := ratingOf(entries, "A", model.Batting)
				So(bat, ShouldAlmostEqual, 1003+10*(0.8-e2), 1e-9)
			})
		})

		Convey("Then all entries carry the match date", func() {
			m := matchWith(model.BallEvent{Striker: "A", Bowler: "B", RunsOffBat: 1})
			entries := engine.UpdateMatch(t.Context(), m, profileWith(nil, nil), nil)
			for _, e := range entries {
				So(e.Date.Equal(m.Date), ShouldBeTrue)
			}
		})
	})

	Convey("Given the default engine", t, func() {
		engine := elo.NewEngine()

		Convey("Then unknown players start from 1200", func() {
			So(engine.DefaultRating(), ShouldEqual, 1200)
		})
	})
}
