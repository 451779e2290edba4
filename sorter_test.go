package ppknn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestComparisonCountReferenceTable checks spec.md §8's comparison-count
// reference table: the schedule depends only on (n, k), never on the data
// being sorted (property 5, "Determinism"). The (8, 4) and (8, 6) entries
// count one truncated merge of two runs of length n/2 with output length k
// (the S5 shape); the others count a full top-k sort.
func TestComparisonCountReferenceTable(t *testing.T) {
	cases := []struct {
		n, k, want int
		mergeOnly  bool
	}{
		{4, 2, 5, false},
		{8, 2, 13, false},
		{16, 2, 29, false},
		{10, 3, 20, false},
		{8, 4, 8, true},
		{8, 6, 9, true},
	}

	client, server := testSetup(t)

	for _, c := range cases {
		items := make([]EncItem, c.n)
		for i := 0; i < c.n; i++ {
			v := uint64(c.n - i)
			items[i] = EncItem{Value: encLWE(client.params, v), Class: encLWE(client.params, v)}
		}

		var comparisons int
		if c.mergeOnly {
			s := &batcherSorter{cmp: server.Comparator, items: items, k: c.k}
			ix := make([]int, c.n/2)
			jx := make([]int, c.n-c.n/2)
			for i := range ix {
				ix[i] = i
			}
			for i := range jx {
				jx[i] = c.n/2 + i
			}
			s.mergeRec(ix, jx, c.k)
			assert.Nil(t, s.err)
			comparisons = s.comparisons
		} else {
			var err error
			_, comparisons, err = server.Comparator.SortTopKCounted(items, c.k)
			assert.Nil(t, err)
		}
		assert.Equal(t, c.want, comparisons, "n=%d k=%d", c.n, c.k)
	}
}

// TestMergeTwoSortedHalves is S5 from spec.md §8: merging two already-sorted
// runs of length 4 with k=4 resolves the first four output slots to
// [1,2,3,4] in exactly 8 comparisons.
func TestMergeTwoSortedHalves(t *testing.T) {
	client, server := testSetup(t)

	values := []uint64{1, 5, 6, 7, 2, 3, 4, 5}
	items := make([]EncItem, len(values))
	for i, v := range values {
		items[i] = EncItem{Value: encLWE(client.params, v), Class: encLWE(client.params, v)}
	}

	s := &batcherSorter{cmp: server.Comparator, items: items, k: 4}
	ix := []int{0, 1, 2, 3}
	jx := []int{4, 5, 6, 7}
	s.mergeRec(ix, jx, 4)
	assert.Nil(t, s.err)
	assert.Equal(t, 8, s.comparisons)

	got := make([]uint64, 4)
	for i := 0; i < 4; i++ {
		got[i], _ = client.Decrypt(items[i])
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, got)
}

func TestSortTopKRejectsNonPositiveK(t *testing.T) {
	client, server := testSetup(t)
	items := []EncItem{{Value: encLWE(client.params, 1), Class: encLWE(client.params, 1)}}

	_, err := server.Comparator.SortTopK(items, 0)
	assert.NotNil(t, err)
}

func TestSortTopKClampsKToLength(t *testing.T) {
	client, server := testSetup(t)
	items := []EncItem{
		{Value: encLWE(client.params, 2), Class: encLWE(client.params, 2)},
		{Value: encLWE(client.params, 1), Class: encLWE(client.params, 1)},
	}

	sorted, err := server.Comparator.SortTopK(items, 10)
	assert.Nil(t, err)
	assert.Len(t, sorted, 2)
}

func TestComputeSplitIsUnconditionalFloorCeil(t *testing.T) {
	n, m := computeSplit(7)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, m)

	n, m = computeSplit(8)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, m)
}

func TestEvenOddIndices(t *testing.T) {
	indices := []int{10, 11, 12, 13, 14}
	assert.Equal(t, []int{10, 12, 14}, evenIndices(indices))
	assert.Equal(t, []int{11, 13}, oddIndices(indices))
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, nextPow2(1))
	assert.Equal(t, 2, nextPow2(2))
	assert.Equal(t, 4, nextPow2(3))
	assert.Equal(t, 8, nextPow2(5))
	assert.Equal(t, 8, nextPow2(8))
}

// TestTopKSoundnessClear is property 4 from spec.md §8, checked over clear
// plaintext integers carried through EncItems via TrivialLWE.
func TestTopKSoundnessClear(t *testing.T) {
	client, server := testSetup(t)
	p := int(client.params.P())

	xs := []uint64{5, 1, 4, 2, 3, 0, 7, 6}
	for _, k := range []int{1, 2, 3, len(xs)} {
		items := make([]EncItem, len(xs))
		for i, v := range xs {
			items[i] = EncItem{Value: encLWE(client.params, v%uint64(p)), Class: encLWE(client.params, v%uint64(p))}
		}

		sorted, err := server.Comparator.SortTopK(items, k)
		assert.Nil(t, err)

		got := make([]uint64, len(sorted))
		for i, item := range sorted {
			got[i], _ = client.Decrypt(item)
		}

		want := append([]uint64(nil), xs...)
		sortUint64(want)
		assert.Equal(t, want[:k], got, "k=%d", k)
	}
}

func sortUint64(xs []uint64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
