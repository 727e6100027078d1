package model_test

import (
	"testing"
	"time"

	"github.com/creaselab/crease/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchContextPlayers(t *testing.T) {
	Convey("Given a match with repeated participants", t, func() {
		m := model.MatchContext{
			ID:    "335982",
			Venue: "M Chinnaswamy Stadium",
			Date:  time.Date(2008, 4, 18, 0, 0, 0, 0, time.UTC),
			Balls: []model.BallEvent{
				{Striker: "SC Ganguly", Bowler: "P Kumar"},
				{Striker: "BB McCullum", Bowler: "P Kumar"},
				{Striker: "BB McCullum", Bowler: "Z Khan"},
			},
		}

		Convey("Then Players returns each name once, sorted", func() {
			So(m.Players(), ShouldResemble, []string{"BB McCullum", "P Kumar", "SC Ganguly", "Z Khan"})
		})
	})

	Convey("Given a match with no deliveries", t, func() {
		So(model.MatchContext{}.Players(), ShouldBeEmpty)
	})
}

func TestDisciplines(t *testing.T) {
	Convey("Disciplines lists batting then bowling", t, func() {
		So(model.Disciplines(), ShouldResemble, []model.Discipline{model.Batting, model.Bowling})
	})
}
