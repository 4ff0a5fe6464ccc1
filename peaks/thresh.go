package peaks

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/rendseq/rendgo/utils"
)

// ErrThresholdNotFound reports that no candidate on the kink grid satisfies
// the divergence criterion. The accompanying value is the legacy -1
// sentinel; callers must not feed it back in as a threshold.
var ErrThresholdNotFound = errors.New("no threshold satisfies the kink criterion")

// kinkExceed is the factor by which the observed tail count must exceed the
// count expected under a standard normal null before a candidate threshold
// is accepted.
const kinkExceed = 1000

// ThreshPeaks labels every position 1 if its score strictly exceeds thresh,
// else 0.
func ThreshPeaks(scores utils.Series, thresh float64) utils.Series {
	calls := make(utils.Series, len(scores))
	for i, p := range scores {
		label := 0.0
		if p.Value > thresh {
			label = 1
		}
		calls[i] = utils.Point{Pos: p.Pos, Value: label}
	}
	return calls
}

// CalcThresh selects a threshold for ThreshPeaks.
//
// The expected_val method chooses the score at which the expected number of
// background positions exceeding it, under a standard normal null, is about
// one; this ties the false-positive budget to the genome size. The kink
// method scans candidates from 0 to 20 in steps of 0.1 and picks the first
// at which the observed tail count reaches kinkExceed times the expected
// one, writing a diagnostic plot of the two curves to kinkPath as a side
// effect; if no candidate qualifies it returns ErrThresholdNotFound.
func CalcThresh(scores utils.Series, method string, kinkPath string) (float64, error) {
	if len(scores) == 0 {
		return -1, errors.New("cannot select a threshold for an empty z-score series")
	}
	switch method {
	case "expected_val":
		pVal := 1 / float64(len(scores))
		return math.Round(distuv.UnitNormal.Quantile(1-pVal)*10) / 10, nil
	case "kink":
		const gridPoints = 200 // 0 to 20, step 0.1
		pnts := make([]float64, gridPoints)
		seen := make([]float64, gridPoints)
		expected := make([]float64, gridPoints)
		thresh := -1.0
		for i := range pnts {
			p := float64(i) / 10
			pnts[i] = p
			for _, s := range scores {
				if s.Value > p {
					seen[i]++
				}
			}
			// Survival keeps the tail strictly positive across the whole
			// grid; 1-CDF(p) cancels to 0 past p ~ 8.3 and would let
			// 0 >= 0 pass as a found threshold.
			expected[i] = distuv.UnitNormal.Survival(p) * float64(len(scores))
			if thresh == -1 && seen[i] >= kinkExceed*expected[i] {
				thresh = p
			}
		}
		if err := makeKinkFig(kinkPath, pnts, seen, expected); err != nil {
			return -1, err
		}
		if thresh == -1 {
			return -1, ErrThresholdNotFound
		}
		return thresh, nil
	default:
		return -1, fmt.Errorf("%s is not a valid threshold selection method", method)
	}
}

// makeKinkFig plots the observed and expected tail counts over the
// candidate grid on a log-scaled y axis.
func makeKinkFig(filename string, pnts, seen, expected []float64) error {
	p := plot.New()
	p.X.Label.Text = "Z score"
	p.Y.Label.Text = "Number of positions with greater z score"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	err := plotutil.AddLines(p,
		"Observed", positiveXYs(pnts, seen),
		"Expected", positiveXYs(pnts, expected))
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("unable to write kink plot to %s: %w", filename, err)
	}
	return nil
}

// positiveXYs drops non-positive counts, which a log scale cannot render.
func positiveXYs(xs, ys []float64) plotter.XYs {
	xy := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if ys[i] > 0 {
			xy = append(xy, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	return xy
}
