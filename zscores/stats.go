package zscores

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// outlierCutoff is the absolute z-score above which a window value is
// considered extreme and excluded from the background estimate.
const outlierCutoff = 2.5

// zScore is the standard z-score with one domain-specific convention: a
// zero standard deviation yields a score of 0 rather than an undefined
// result, so constant windows never block the pipeline.
func zScore(val, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (val - mean) / std
}

// trimOutliers removes values more than outlierCutoff standard deviations
// from the mean of the input. Values are excluded rather than winsorized to
// avoid artificially deflating the standard deviation used to judge them.
// This is a single pass: survivors are not re-examined against the trimmed
// statistics. Inputs with fewer than two values, or with zero variance,
// have no outliers and are returned unchanged.
func trimOutliers(vals []float64) []float64 {
	if len(vals) <= 1 {
		return vals
	}
	mean := stat.Mean(vals, nil)
	std := stat.PopStdDev(vals, nil)
	if std == 0 {
		return vals
	}
	trimmed := make([]float64, 0, len(vals))
	for _, v := range vals {
		if score := zScore(v, mean, std); score < outlierCutoff && score > -outlierCutoff {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}

// scoreOverWindow trims outliers from the window values and scores target
// against the surviving background. The score is reported as untrusted
// (ok == false) when the summed depth of the trimmed window does not exceed
// minTotal: too few reads to believe the local background estimate.
func scoreOverWindow(vals []float64, minTotal float64, target float64) (score float64, ok bool) {
	trimmed := trimOutliers(vals)
	if len(trimmed) == 0 || floats.Sum(trimmed) <= minTotal {
		return 0, false
	}
	return zScore(target, stat.Mean(trimmed, nil), stat.PopStdDev(trimmed, nil)), true
}
