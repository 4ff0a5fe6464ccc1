package zscores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendseq/rendgo/utils"
)

// testReads is a small track with mostly contiguous positions, one extreme
// count at position 7, and two distant trailing positions exercising the
// position-unit window search.
func testReads() utils.Series {
	return utils.Series{
		{Pos: 1, Value: 5}, {Pos: 2, Value: 6}, {Pos: 3, Value: 8},
		{Pos: 4, Value: 10}, {Pos: 5, Value: 8}, {Pos: 6, Value: 10},
		{Pos: 7, Value: 1200}, {Pos: 8, Value: 14}, {Pos: 9, Value: 1},
		{Pos: 10, Value: 2}, {Pos: 11, Value: 5}, {Pos: 12, Value: 6},
		{Pos: 109, Value: 2}, {Pos: 208, Value: 4},
	}
}

func TestComputeReference(t *testing.T) {
	expected := utils.Series{
		{Pos: 5, Value: 0},
		{Pos: 6, Value: -0.70262826},
		{Pos: 7, Value: 202.20038777234487},
		{Pos: 8, Value: 4.949747468305832},
		{Pos: 9, Value: -0.7213550215235531},
		{Pos: 10, Value: 0},
	}

	scores, err := Compute(testReads(), 1, 3, 0)
	require.NoError(t, err)
	require.Len(t, scores, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Pos, scores[i].Pos)
		assert.InDelta(t, expected[i].Value, scores[i].Value, 1e-6, "position %d", expected[i].Pos)
	}
}

func TestComputeEdgeOutlierIgnored(t *testing.T) {
	// An extreme count near the edge, where no score is computed, must not
	// change the scores of interior positions.
	reads := testReads()
	reads[11] = utils.Point{Pos: 12, Value: 1e8}

	scores, err := Compute(reads, 1, 3, 0)
	require.NoError(t, err)

	baseline, err := Compute(testReads(), 1, 3, 0)
	require.NoError(t, err)
	require.Len(t, scores, len(baseline))
	for i := range baseline {
		assert.InDelta(t, baseline[i].Value, scores[i].Value, 1e-6)
	}
}

func TestComputeLengthAndFirstPosition(t *testing.T) {
	reads := make(utils.Series, 300)
	for i := range reads {
		reads[i] = utils.Point{Pos: i + 1, Value: float64(i%7) + 1}
	}
	gap, wSz := 5, 50

	scores, err := Compute(reads, gap, wSz, 0)
	require.NoError(t, err)
	assert.Len(t, scores, len(reads)-2*(gap+wSz))
	assert.Equal(t, reads[gap+wSz].Pos, scores[0].Pos)
}

func TestComputeShortSeries(t *testing.T) {
	scores, err := Compute(testReads(), 5, 50, 20)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestComputeFallback(t *testing.T) {
	// With minR above every window's depth both sides are untrusted and
	// every computed score falls back to raw/1.5.
	reads := make(utils.Series, 14)
	for i := range reads {
		reads[i] = utils.Point{Pos: i + 1, Value: 3}
	}

	scores, err := Compute(reads, 1, 3, 1e8)
	require.NoError(t, err)
	require.Len(t, scores, 6)
	assert.Equal(t, 0.0, scores[0].Value)
	for _, p := range scores[1:] {
		assert.InDelta(t, 3.0/1.5, p.Value, 1e-12)
	}
}

func TestComputeZeroDepthFallbackIsZero(t *testing.T) {
	reads := make(utils.Series, 20)
	for i := range reads {
		reads[i] = utils.Point{Pos: i + 1}
	}

	scores, err := Compute(reads, 1, 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, scores)
	for _, p := range scores {
		assert.Equal(t, 0.0, p.Value)
	}
}

func TestComputeRejectsBadParameters(t *testing.T) {
	_, err := Compute(testReads(), 1, 0, 0)
	assert.ErrorContains(t, err, "window size")

	_, err = Compute(testReads(), -1, 3, 0)
	assert.ErrorContains(t, err, "gap size")
}

func TestValidateGapWindow(t *testing.T) {
	assert.Error(t, ValidateGapWindow(100, 0))
	assert.Error(t, ValidateGapWindow(-1, 100))
	assert.NoError(t, ValidateGapWindow(0, 100))
	// A gap of 1 is questionable but valid; it warns instead of failing.
	assert.NoError(t, ValidateGapWindow(1, 100))
}

func TestAdjustDown(t *testing.T) {
	reads := testReads()

	// Target above every position: no movement.
	assert.Equal(t, 3, adjustDown(3, 1000, reads))
	// One and several steps down.
	assert.Equal(t, 1, adjustDown(2, 2, reads))
	assert.Equal(t, 1, adjustDown(3, 2, reads))
	// Target below every position clamps at the start.
	assert.Equal(t, 0, adjustDown(1, -1, reads))
	// An index past the end clamps before walking.
	assert.Equal(t, 1, adjustDown(len(reads)+5, 2, reads))
}

func TestAdjustUp(t *testing.T) {
	reads := testReads()

	assert.Equal(t, 2, adjustUp(1, 3, reads))
	assert.Equal(t, 2, adjustUp(0, 3, reads))
	// Target above every position clamps at the end.
	assert.Equal(t, len(reads)-1, adjustUp(1, 1000, reads))
	// Already at or past the target: no movement.
	assert.Equal(t, 2, adjustUp(2, 0, reads))
	// A negative index clamps before walking.
	assert.Equal(t, 2, adjustUp(-4, 3, reads))
}
