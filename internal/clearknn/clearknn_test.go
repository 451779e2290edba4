package clearknn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizeNoneLeavesRowsUnchanged(t *testing.T) {
	rows := [][]uint64{{3, 7, 1}, {15, 0, 2}}
	want := [][]uint64{{3, 7, 1}, {15, 0, 2}}

	Quantize(rows, QuantizeNone)

	assert.Equal(t, want, rows)
}

func TestQuantizeBinaryThresholdsAtHalf(t *testing.T) {
	rows := [][]uint64{{0, 7, 8, 15, 9}}

	Quantize(rows, QuantizeBinary)

	assert.Equal(t, []uint64{0, 0, 1, 1, 9}, rows[0])
}

func TestQuantizeTernarySplitsIntoThirds(t *testing.T) {
	rows := [][]uint64{{0, 5, 6, 11, 12, 15, 3}}

	Quantize(rows, QuantizeTernary)

	assert.Equal(t, []uint64{0, 0, 1, 1, 2, 2, 3}, rows[0])
}

func TestQuantizeLeavesLabelColumnAlone(t *testing.T) {
	rows := [][]uint64{{15, 15, 99}}

	Quantize(rows, QuantizeBinary)

	assert.Equal(t, uint64(99), rows[0][2])
}

func TestQuantizeTypeString(t *testing.T) {
	assert.Equal(t, "none", QuantizeNone.String())
	assert.Equal(t, "binary", QuantizeBinary.String())
	assert.Equal(t, "ternary", QuantizeTernary.String())
}

func TestSplitModelTest(t *testing.T) {
	rows := [][]uint64{
		{1, 2, 0},
		{3, 4, 1},
		{5, 6, 0},
		{7, 8, 1},
	}

	model, modelLabels, test, testLabels := SplitModelTest(2, 2, rows)

	assert.Equal(t, [][]uint64{{1, 2}, {3, 4}}, model)
	assert.Equal(t, []uint64{0, 1}, modelLabels)
	assert.Equal(t, [][]uint64{{5, 6}, {7, 8}}, test)
	assert.Equal(t, []uint64{0, 1}, testLabels)
}

func TestMajorityBreaksTiesBySmallestLabel(t *testing.T) {
	assert.Equal(t, uint64(1), Majority([]uint64{1, 2}))
	assert.Equal(t, uint64(0), Majority([]uint64{0, 1, 1, 0}))
	assert.Equal(t, uint64(3), Majority([]uint64{3, 3, 3, 9}))
}

func TestDistances(t *testing.T) {
	model := [][]uint64{{0, 0}, {3, 4}, {1, 1}}
	target := []uint64{0, 0}

	got := Distances(model, target)

	assert.Equal(t, []uint64{0, 25, 2}, got)
}

func TestRunKNNReturnsKNearestSortedAscending(t *testing.T) {
	model := [][]uint64{{0, 0}, {10, 10}, {1, 1}, {2, 2}}
	labels := []uint64{0, 1, 0, 1}
	target := []uint64{0, 0}

	nearest, maxDist := RunKNN(2, model, labels, target)

	assert.Len(t, nearest, 2)
	assert.Equal(t, uint64(0), nearest[0].Distance)
	assert.Equal(t, uint64(0), nearest[0].Class)
	assert.Equal(t, uint64(2), nearest[1].Distance)
	assert.Equal(t, uint64(200), maxDist)
}

func TestRunKNNClampsKToModelSize(t *testing.T) {
	model := [][]uint64{{0, 0}, {1, 1}}
	labels := []uint64{0, 1}
	target := []uint64{0, 0}

	nearest, _ := RunKNN(5, model, labels, target)

	assert.Len(t, nearest, 2)
}
