package peaks

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendseq/rendgo/utils"
)

func writeScores(t *testing.T, scores utils.Series) (string, string) {
	t.Helper()
	dir := t.TempDir()
	infile := filepath.Join(dir, "sample_zscores.wig")
	require.NoError(t, utils.WriteWig(scores, infile, "test_chrom"))
	return dir, infile
}

func TestRendPeaksThreshExplicit(t *testing.T) {
	scores := flatScores(100, 0)
	scores[40].Value = 9

	dir, infile := writeScores(t, scores)
	require.NoError(t, RendPeaks(infile, "thresh", Options{Thresh: 5, ThreshSet: true, SaveFile: true}))

	calls, chrom, err := utils.LoadWig(filepath.Join(dir, "Peaks", "sample_zscores_peaks.wig"))
	require.NoError(t, err)
	assert.Equal(t, "test_chrom", chrom)
	require.Len(t, calls, 100)
	assert.Equal(t, 1.0, calls[40].Value)
	assert.Equal(t, 0.0, calls[41].Value)
}

func TestRendPeaksThreshAutoSelection(t *testing.T) {
	// expected_val depends only on the series length, so the call count is
	// predictable: one score sits above Phi^-1(1 - 1/1000).
	scores := flatScores(1000, 0)
	scores[500].Value = 4

	dir, infile := writeScores(t, scores)
	require.NoError(t, RendPeaks(infile, "thresh", Options{SelectMethod: "expected_val", SaveFile: true}))

	calls, _, err := utils.LoadWig(filepath.Join(dir, "Peaks", "sample_zscores_peaks.wig"))
	require.NoError(t, err)
	assert.Equal(t, 1, countPeaks(calls))
}

func TestRendPeaksHmm(t *testing.T) {
	scores := flatScores(300, 0)
	scores[150].Value = 8

	dir, infile := writeScores(t, scores)
	opts := Options{
		IToP:       defaultIToP,
		PToP:       defaultPToP,
		PeakCenter: defaultPeakCenter,
		Spread:     defaultSpread,
		SaveFile:   true,
	}
	require.NoError(t, RendPeaks(infile, "hmm", opts))

	calls, _, err := utils.LoadWig(filepath.Join(dir, "Peaks", "sample_zscores_peaks.wig"))
	require.NoError(t, err)
	require.Len(t, calls, 300)
	assert.Equal(t, float64(PeakLabel), calls[150].Value)
	assert.Equal(t, float64(BackgroundLabel), calls[149].Value)
}

func TestRendPeaksUnknownMethod(t *testing.T) {
	_, infile := writeScores(t, flatScores(10, 0))
	err := RendPeaks(infile, "bogus", Options{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "not a valid peak finding method")
}
