// Package outcome classifies a single delivery into a closed outcome set.
package outcome

import (
	"strings"

	"github.com/creaselab/crease/internal/domain/model"
)

// Outcome is the classification of a delivery's result: runs 0-6 off the
// bat, a wicket, a wide, or a no-ball.
type Outcome int

const (
	Runs0 Outcome = iota
	Runs1
	Runs2
	Runs3
	Runs4
	Runs5
	Runs6
	Wicket
	Wide
	NoBall
)

const maxRuns = 6

// Runs maps a runs-off-bat count onto its outcome, folding out-of-range
// values to the nearest bound.
func Runs(n int) Outcome {
	if n < 0 {
		n = 0
	}
	if n > maxRuns {
		n = maxRuns
	}
	return Outcome(n)
}

// All lists every outcome in declaration order.
func All() []Outcome {
	return []Outcome{Runs0, Runs1, Runs2, Runs3, Runs4, Runs5, Runs6, Wicket, Wide, NoBall}
}

// Key returns the persisted map key for the outcome: "0".."6", "wicket",
// "wide" or "no-ball".
func (o Outcome) Key() string {
	switch o {
	case Wicket:
		return "wicket"
	case Wide:
		return "wide"
	case NoBall:
		return "no-ball"
	default:
		return string(rune('0' + int(o)))
	}
}

// runOutType is the dismissal type excluded from rating updates. Run outs
// reflect neither batting nor bowling skill.
const runOutType = "run out"

// Classify maps a delivery to its outcome. The second return value is false
// when the delivery must be excluded entirely (run out); callers skip such
// balls without touching either participant's rating.
//
// Priority order: run out exclusion, wicket, wide, no-ball, runs off bat.
func Classify(b model.BallEvent) (Outcome, bool) {
	wicket := strings.TrimSpace(b.WicketType)
	if strings.EqualFold(wicket, runOutType) {
		return 0, false
	}
	switch {
	case wicket != "":
		return Wicket, true
	case b.Wides > 0:
		return Wide, true
	case b.NoBalls > 0:
		return NoBall, true
	default:
		return Runs(b.RunsOffBat), true
	}
}
