package zscores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZScore(t *testing.T) {
	assert.InDelta(t, 1.0, zScore(5, 3, 2), 1e-12)
	assert.InDelta(t, -2.5, zScore(0, 5, 2), 1e-12)
}

func TestZScoreZeroStd(t *testing.T) {
	// A constant window yields a zero score, not a division fault.
	assert.Equal(t, 0.0, zScore(1, 1, 0))
	assert.Equal(t, 0.0, zScore(-123.4, 56.7, 0))
}

func TestTrimOutliersEmpty(t *testing.T) {
	assert.Empty(t, trimOutliers(nil))
}

func TestTrimOutliersConstant(t *testing.T) {
	vals := []float64{1, 1, 1, 1, 1, 1}
	assert.Equal(t, vals, trimOutliers(vals))
}

func TestTrimOutliersSingle(t *testing.T) {
	vals := []float64{42}
	assert.Equal(t, vals, trimOutliers(vals))
}

func TestTrimOutliersClearOutlier(t *testing.T) {
	vals := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		vals = append(vals, float64(i))
	}
	vals = append(vals, 80)
	assert.Equal(t, vals[:20], trimOutliers(vals))
}

func TestTrimOutliersSinglePass(t *testing.T) {
	// 5 sits just above the 2.5 sigma cutoff and 4.2 just below it. After
	// removing 5, a second pass would also remove 4.2; the contract is one
	// pass, so 4.2 must survive.
	vals := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 4.2, 5}
	assert.Equal(t, vals[:11], trimOutliers(vals))
}

func TestScoreOverWindow(t *testing.T) {
	score, ok := scoreOverWindow([]float64{10, 8, 10}, 0, 14)
	require.True(t, ok)
	assert.InDelta(t, 4.949747468305832, score, 1e-9)
}

func TestScoreOverWindowConstant(t *testing.T) {
	score, ok := scoreOverWindow([]float64{1, 1, 1, 1, 1, 1}, 0, 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestScoreOverWindowInsufficientDepth(t *testing.T) {
	_, ok := scoreOverWindow([]float64{1, 2, 3}, 10, 1)
	assert.False(t, ok)
}

func TestScoreOverWindowEmpty(t *testing.T) {
	_, ok := scoreOverWindow(nil, 0, 1)
	assert.False(t, ok)
}

func TestScoreOverWindowTrimsBeforeScoring(t *testing.T) {
	// The 800 outlier must not contaminate the background estimate.
	withOutlier, ok := scoreOverWindow([]float64{10, 8, 10, 8, 10, 9, 11, 800}, 0, 14)
	require.True(t, ok)
	clean, ok := scoreOverWindow([]float64{10, 8, 10, 8, 10, 9, 11}, 0, 14)
	require.True(t, ok)
	assert.InDelta(t, clean, withOutlier, 1e-12)
}
