package zscores

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rendseq/rendgo/utils"
)

// fallbackDivisor scales the raw read count into a stand-in score when both
// one-sided windows lack sufficient depth.
const fallbackDivisor = 1.5

// side tags the outcome of the left/right window selection policy.
type side int

const (
	sideFallback side = iota // neither window has sufficient depth
	sideLeft
	sideRight
)

// ValidateGapWindow rejects window parameters that cannot produce a score.
// A gap of exactly 1 is accepted but logged as a warning: it pulls the
// target's immediate neighbor into its own background window and may
// misrepresent peaks.
func ValidateGapWindow(gap, wSz int) error {
	if wSz < 1 {
		return fmt.Errorf("window size must be at least 1 to find a z-score, got %d", wSz)
	}
	if gap < 0 {
		return fmt.Errorf("gap size must be at least zero to find a z-score, got %d", gap)
	}
	if gap == 1 {
		slog.Warn("a gap size of 1 includes the current position and may misrepresent peaks")
	}
	return nil
}

// adjustDown walks curInd down until the read at that index sits at or below
// targetPos. The walk clamps at both ends of the series rather than failing
// when a window runs off the edge.
func adjustDown(curInd, targetPos int, reads utils.Series) int {
	if curInd > len(reads)-1 {
		curInd = len(reads) - 1
	}
	for reads[curInd].Pos > targetPos && curInd > 0 {
		curInd--
	}
	return curInd
}

// adjustUp walks curInd up until the read at that index sits at or above
// targetPos, clamping at both ends of the series.
func adjustUp(curInd, targetPos int, reads utils.Series) int {
	if curInd < 0 {
		curInd = 0
	}
	if curInd > len(reads)-1 {
		curInd = len(reads) - 1
	}
	for reads[curInd].Pos < targetPos && curInd < len(reads)-1 {
		curInd++
	}
	return curInd
}

// leftScore scores reads[i] against the window [pos-(gap+wSz), pos-gap),
// measured in position units.
func leftScore(gap, wSz int, minR float64, reads utils.Series, i int) (float64, bool) {
	start := adjustUp(i-(gap+wSz), reads[i].Pos-(gap+wSz), reads)
	stop := adjustUp(i-gap, reads[i].Pos-gap, reads)
	return scoreOverWindow(reads[start:stop].Values(), minR, reads[i].Value)
}

// rightScore scores reads[i] against the window (pos+gap, pos+gap+wSz].
func rightScore(gap, wSz int, minR float64, reads utils.Series, i int) (float64, bool) {
	start := adjustDown(i+gap, reads[i].Pos+gap, reads)
	stop := adjustDown(i+gap+wSz, reads[i].Pos+gap+wSz, reads)
	return scoreOverWindow(reads[start:stop].Values(), minR, reads[i].Value)
}

// chooseSide picks between the two one-sided scores. When both are trusted
// the side with the smaller absolute value wins: a genuine peak looks
// extreme from both directions, so the weaker side is the one less likely
// to be contaminated by the peak itself. Ties go to the left window.
func chooseSide(left, right float64, leftOK, rightOK bool) side {
	switch {
	case !leftOK && !rightOK:
		return sideFallback
	case !leftOK:
		return sideRight
	case !rightOK:
		return sideLeft
	case math.Abs(right) < math.Abs(left):
		return sideRight
	default:
		return sideLeft
	}
}

// Compute transforms raw read counts into robust local z-scores. Each
// position with a full window on both sides is scored against its left and
// right backgrounds and the more conservative side is kept; positions where
// neither side has at least minR summed reads fall back to the raw count
// scaled by fallbackDivisor. The leading and trailing gap+wSz positions are
// dropped because they lack a full window on at least one side.
func Compute(reads utils.Series, gap, wSz int, minR float64) (utils.Series, error) {
	if err := ValidateGapWindow(gap, wSz); err != nil {
		return nil, err
	}

	edge := gap + wSz
	n := len(reads) - 2*edge
	if n <= 0 {
		return utils.Series{}, nil
	}

	scores := make(utils.Series, n)
	for k := range scores {
		scores[k] = utils.Point{Pos: reads[edge+k].Pos}
	}
	for i := edge + 1; i < len(reads)-edge; i++ {
		left, leftOK := leftScore(gap, wSz, minR, reads, i)
		right, rightOK := rightScore(gap, wSz, minR, reads, i)
		switch chooseSide(left, right, leftOK, rightOK) {
		case sideLeft:
			scores[i-edge].Value = left
		case sideRight:
			scores[i-edge].Value = right
		case sideFallback:
			scores[i-edge].Value = reads[i].Value / fallbackDivisor
		}
	}
	return scores, nil
}
