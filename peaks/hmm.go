package peaks

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rendseq/rendgo/utils"
)

// State indices and output labels. The HMM caller labels peaks 100 and
// background 1 in its output track; the threshold caller uses 0/1. The two
// alphabets are intentionally different so downstream consumers can tell
// which caller produced a track.
const (
	background = 0
	peak       = 1

	BackgroundLabel = 1
	PeakLabel       = 100
)

// unreachable marks a lattice cell no permitted state path can occupy. It
// is assigned explicitly for zero-probability transitions and emissions
// rather than produced by arithmetic on log(0).
var unreachable = math.Inf(-1)

// TransitionModel is a row-stochastic 2x2 matrix over {background, peak}.
type TransitionModel struct {
	probs [2][2]float64
}

// NewTransitionModel builds the transition matrix from the probability of
// entering the peak state from background (iToP) and of remaining in the
// peak state (pToP). Values of exactly 0 or 1 are permitted but forbid the
// corresponding transition; if the whole lattice collapses as a result,
// Decode reports it.
func NewTransitionModel(iToP, pToP float64) (TransitionModel, error) {
	if math.IsNaN(iToP) || iToP < 0 || iToP > 1 {
		return TransitionModel{}, fmt.Errorf("background-to-peak probability must be in [0, 1], got %v", iToP)
	}
	if math.IsNaN(pToP) || pToP < 0 || pToP > 1 {
		return TransitionModel{}, fmt.Errorf("peak-to-peak probability must be in [0, 1], got %v", pToP)
	}
	m := TransitionModel{}
	m.probs[background][background] = 1 - iToP
	m.probs[background][peak] = iToP
	m.probs[peak][background] = 1 - pToP
	m.probs[peak][peak] = pToP
	return m, nil
}

// Prob returns the probability of transitioning between two states.
func (m TransitionModel) Prob(from, to int) float64 {
	return m.probs[from][to]
}

// pathScore extends a predecessor log-probability by one transition and one
// emission. Any zero-probability term makes the whole path unreachable.
func pathScore(prev, trans, emission float64) float64 {
	if prev == unreachable || trans == 0 || emission == 0 {
		return unreachable
	}
	return prev + math.Log(trans) + math.Log(emission)
}

// Decode runs the Viterbi dynamic program over the z-score track. The
// background state emits from a standard normal density; the peak state
// from a normal centered at peakCenter with standard deviation spread. Both
// states are unconditionally reachable at the first position (log 1, no
// prior bias) and the decoded path is recovered by backtracking from the
// best final state. If some position leaves every state unreachable the
// model is degenerate and an error is returned instead of an arbitrary
// path.
func Decode(scores utils.Series, model TransitionModel, peakCenter, spread float64) (utils.Series, error) {
	if spread <= 0 {
		return nil, fmt.Errorf("peak emission spread must be positive, got %v", spread)
	}
	n := len(scores)
	if n == 0 {
		return utils.Series{}, nil
	}

	bgEmission := distuv.UnitNormal
	peakEmission := distuv.Normal{Mu: peakCenter, Sigma: spread}

	v := make([][2]float64, n)
	back := make([][2]int, n)
	for i := 1; i < n; i++ {
		em := [2]float64{bgEmission.Prob(scores[i].Value), peakEmission.Prob(scores[i].Value)}
		alive := false
		for j := range v[i] {
			best, bestFrom := unreachable, background
			for k := range v[i-1] {
				if p := pathScore(v[i-1][k], model.Prob(k, j), em[j]); p > best {
					best, bestFrom = p, k
				}
			}
			v[i][j], back[i][j] = best, bestFrom
			if best != unreachable {
				alive = true
			}
		}
		if !alive {
			return nil, fmt.Errorf("every state path has zero probability at position %d: degenerate transition or emission parameters", scores[i].Pos)
		}
	}

	labels := [2]float64{BackgroundLabel, PeakLabel}
	state := background
	if v[n-1][peak] > v[n-1][background] {
		state = peak
	}
	calls := make(utils.Series, n)
	for i := n - 1; i >= 0; i-- {
		calls[i] = utils.Point{Pos: scores[i].Pos, Value: labels[state]}
		if i > 0 {
			state = back[i][state]
		}
	}
	return calls, nil
}

// HmmPeaks fits the two-state HMM to a z-score track and returns the
// decoded peak calls.
func HmmPeaks(scores utils.Series, iToP, pToP, peakCenter, spread float64) (utils.Series, error) {
	model, err := NewTransitionModel(iToP, pToP)
	if err != nil {
		return nil, err
	}
	calls, err := Decode(scores, model, peakCenter, spread)
	if err != nil {
		return nil, err
	}

	found := 0
	for _, p := range calls {
		if p.Value == PeakLabel {
			found++
		}
	}
	slog.Info("found peaks", "count", found)
	return calls, nil
}
