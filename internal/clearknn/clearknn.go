// Package clearknn implements plaintext k-nearest-neighbour classification
// and quantization, mirroring the original ppknn construction's clear_knn
// module so that encrypted results have a clear-text baseline to be
// checked against (spec.md §8, "clear vs. actual accuracy").
//
// find_best_model (searching for a model/test split with high accuracy) is
// deliberately not reimplemented here: nothing in the specification asks
// for model selection, only for classification over a model the caller
// already chose.
package clearknn

import "sort"

// QuantizeType selects how a raw [0, MaxFeatureValue] feature column is
// mapped down to a small discrete alphabet before encryption.
type QuantizeType int

const (
	QuantizeNone QuantizeType = iota
	QuantizeBinary
	QuantizeTernary
)

func (q QuantizeType) String() string {
	switch q {
	case QuantizeBinary:
		return "binary"
	case QuantizeTernary:
		return "ternary"
	default:
		return "none"
	}
}

// MaxFeatureValue is the assumed upper bound of every non-label feature
// column before quantization.
const MaxFeatureValue = 16

// Quantize rewrites every feature column of rows in place (the last column
// of each row, the label, is left untouched), per qt.
func Quantize(rows [][]uint64, qt QuantizeType) {
	switch qt {
	case QuantizeNone:
		return
	case QuantizeBinary:
		threshold := uint64(MaxFeatureValue / 2)
		for _, row := range rows {
			for i := 0; i < len(row)-1; i++ {
				if row[i] < threshold {
					row[i] = 0
				} else {
					row[i] = 1
				}
			}
		}
	case QuantizeTernary:
		third := uint64(6) // ceil(MaxFeatureValue / 3)
		for _, row := range rows {
			for i := 0; i < len(row)-1; i++ {
				switch {
				case row[i] < third:
					row[i] = 0
				case row[i] < 2*third:
					row[i] = 1
				default:
					row[i] = 2
				}
			}
		}
	}
}

// SplitModelTest splits rows (each row's last element is its label) into a
// model set of modelSize rows and a test set of testSize rows, in the
// order rows already has them.
func SplitModelTest(modelSize, testSize int, rows [][]uint64) (model [][]uint64, modelLabels []uint64, test [][]uint64, testLabels []uint64) {
	model = make([][]uint64, modelSize)
	modelLabels = make([]uint64, modelSize)
	for i := 0; i < modelSize; i++ {
		row := rows[i]
		model[i] = row[:len(row)-1]
		modelLabels[i] = row[len(row)-1]
	}

	test = make([][]uint64, testSize)
	testLabels = make([]uint64, testSize)
	for i := 0; i < testSize; i++ {
		row := rows[modelSize+i]
		test[i] = row[:len(row)-1]
		testLabels[i] = row[len(row)-1]
	}

	return model, modelLabels, test, testLabels
}

// Majority returns the most frequent label, breaking ties by the smallest
// label value.
func Majority(labels []uint64) uint64 {
	counts := make(map[uint64]int, len(labels))
	for _, l := range labels {
		counts[l]++
	}

	best, bestCount := uint64(0), -1
	keys := make([]uint64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// Distances returns the squared Euclidean distance from target to every
// row of model, in row order.
func Distances(model [][]uint64, target []uint64) []uint64 {
	out := make([]uint64, len(model))
	for i, row := range model {
		var d uint64
		for j, t := range target {
			diff := int64(row[j]) - int64(t)
			d += uint64(diff * diff)
		}
		out[i] = d
	}
	return out
}

// LabelledDistance pairs a row's distance from the target with its class.
type LabelledDistance struct {
	Distance uint64
	Class    uint64
}

// RunKNN returns the k nearest rows to target, sorted by ascending
// distance, and the largest distance seen (useful for sizing the message
// modulus a parameter set needs).
func RunKNN(k int, model [][]uint64, labels []uint64, target []uint64) ([]LabelledDistance, uint64) {
	distances := Distances(model, target)

	items := make([]LabelledDistance, len(distances))
	var maxDist uint64
	for i, d := range distances {
		items[i] = LabelledDistance{Distance: d, Class: labels[i]}
		if d > maxDist {
			maxDist = d
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Distance < items[j].Distance })
	if k > len(items) {
		k = len(items)
	}
	return items[:k], maxDist
}
