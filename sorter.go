package ppknn

import "fmt"

// batcherSorter runs one top-k sort over a fixed slice of EncItems,
// tracking the comparison count spec.md §8's reference table checks
// against. It is a direct port of the original ppknn construction's
// BatcherSort (split_indices/sort_rec/tournament_merge/merge_rec), adapted
// to call the Comparator's oblivious CompareExchange in place of a
// plaintext "swap if out of order" (spec.md §4.7).
type batcherSorter struct {
	cmp   *Comparator
	items []EncItem
	k     int

	comparisons int
	err         error
}

// SortTopK implements spec.md §4.7: it returns the k smallest EncItems of
// items, in ascending order, via a truncated Batcher odd-even merge
// network. Every comparison obliviously compare-exchanges two slots and
// writes both results back, so the EncItems the caller does not ask for
// the value of are still touched exactly as the construction specifies.
func (c *Comparator) SortTopK(items []EncItem, k int) ([]EncItem, error) {
	out, _, err := c.SortTopKCounted(items, k)
	return out, err
}

// SortTopKCounted is SortTopK plus the number of CompareExchange calls it
// performed, for checking against spec.md §8's comparison-count reference
// table.
func (c *Comparator) SortTopKCounted(items []EncItem, k int) ([]EncItem, int, error) {
	if k <= 0 {
		return nil, 0, fmt.Errorf("ppknn: sort top k: k must be positive, got %d", k)
	}
	if k > len(items) {
		k = len(items)
	}

	out := make([]EncItem, len(items))
	copy(out, items)

	s := &batcherSorter{cmp: c, items: out, k: k}
	s.sort()
	if s.err != nil {
		return nil, 0, fmt.Errorf("ppknn: sort top k: %w", s.err)
	}
	return out[:k], s.comparisons, nil
}

func (s *batcherSorter) sort() {
	n := len(s.items)
	if n <= 4 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		s.sortRec(indices)
		return
	}

	chunks := s.splitIndices()
	for _, chunk := range chunks {
		s.sortRec(chunk)
		if s.err != nil {
			return
		}
	}
	s.tournamentMerge(chunks)
}

// splitIndices partitions [0, len(items)) into chunks of size
// s = 2^ceil(log2(k)) (s = 2 when k is 1), with one final short chunk
// absorbing the remainder.
func (s *batcherSorter) splitIndices() [][]int {
	n := len(s.items)
	chunkSize := 2
	if s.k != 1 {
		chunkSize = nextPow2(s.k)
	}

	var out [][]int
	chunks := n / chunkSize
	for i := 0; i < chunks; i++ {
		chunk := make([]int, chunkSize)
		for j := range chunk {
			chunk[j] = i*chunkSize + j
		}
		out = append(out, chunk)
	}

	if rem := n % chunkSize; rem != 0 {
		chunk := make([]int, rem)
		for j := range chunk {
			chunk[j] = n - rem + j
		}
		out = append(out, chunk)
	}
	return out
}

// computeSplit splits a length-`length` run of indices into two runs whose
// sizes feed sortRec's two recursive calls. The simpler, unconditional
// floor/ceil split is canonical here (spec.md §9, "the simpler split is
// the one this construction uses").
func computeSplit(length int) (int, int) {
	n := length / 2
	m := length - n
	return n, m
}

func (s *batcherSorter) sortRec(indices []int) {
	if s.err != nil || len(indices) <= 1 {
		return
	}

	n, m := computeSplit(len(indices))
	s.sortRec(indices[:n])
	s.sortRec(indices[n : n+m])
	if s.err != nil {
		return
	}

	ix := indices[:n]
	jx := indices[n : n+m]
	if len(ix) > s.k {
		ix = ix[:s.k]
	}
	if len(jx) > s.k {
		jx = jx[:s.k]
	}
	s.mergeRec(ix, jx, s.k)
}

// tournamentMerge merges index sets pairwise, round after round, until one
// remains (spec.md §4.7, "tournament merge").
func (s *batcherSorter) tournamentMerge(indexSets [][]int) {
	for len(indexSets) > 1 && s.err == nil {
		var next [][]int
		for i := 0; i+1 < len(indexSets); i += 2 {
			left, right := indexSets[i], indexSets[i+1]
			lenLeft := len(left)
			if lenLeft > s.k {
				lenLeft = s.k
			}
			lenRight := len(right)
			if lenRight > s.k {
				lenRight = s.k
			}
			outputLen := lenLeft + lenRight
			if outputLen > s.k {
				outputLen = s.k
			}

			s.mergeRec(left[:lenLeft], right[:lenRight], outputLen)
			if s.err != nil {
				return
			}

			combined := make([]int, 0, len(left)+len(right))
			combined = append(combined, left...)
			combined = append(combined, right...)
			next = append(next, combined)
		}
		if len(indexSets)%2 == 1 {
			next = append(next, indexSets[len(indexSets)-1])
		}
		indexSets = next
	}
}

// mergeRec implements spec.md §4.7's truncated merge(ix, jx, outputLen): it
// recursively merges the even- and odd-indexed interleavings of two
// already-sorted index runs, then performs the realignment compare-
// exchanges (and, if len(ix) is odd, the corrective swaps) that the
// Batcher network needs to stay correct when a run is truncated.
func (s *batcherSorter) mergeRec(ix, jx []int, outputLen int) {
	if s.err != nil {
		return
	}

	nm := len(ix) * len(jx)
	if nm > 1 {
		evenIx, oddIx := evenIndices(ix), oddIndices(ix)
		evenJx, oddJx := evenIndices(jx), oddIndices(jx)

		oddOutputLen := outputLen / 2
		evenOutputLen := outputLen - oddOutputLen
		s.mergeRec(evenIx, evenJx, evenOutputLen)
		s.mergeRec(oddIx, oddJx, oddOutputLen)
		if s.err != nil {
			return
		}

		evenAll := append(append([]int{}, evenIx...), evenJx...)
		oddAll := append(append([]int{}, oddIx...), oddJx...)

		tmp := len(evenAll)/2 + len(oddAll)/2
		wMax := tmp
		if len(evenAll)%2 == 0 && len(oddAll)%2 == 0 {
			wMax = tmp - 1
		}

		localIndex := buildLocalIndexMap(ix, jx)
		for i := 0; i < wMax; i++ {
			if localIndex[oddAll[i]] < outputLen || localIndex[evenAll[i+1]] < outputLen {
				s.compareAt(oddAll[i], evenAll[i+1])
				if s.err != nil {
					return
				}
			}
		}

		if len(ix)%2 == 1 {
			end := len(jx)
			if end%2 == 1 {
				end--
			}
			for i := 0; i < end; i += 2 {
				s.items[jx[i]], s.items[jx[i+1]] = s.items[jx[i+1]], s.items[jx[i]]
			}
		}
	} else if nm == 1 {
		s.compareAt(ix[0], jx[0])
	}
}

// compareAt obliviously compare-exchanges items[i] and items[j], always
// leaving the smaller value at i and the larger at j (spec.md §4.6).
func (s *batcherSorter) compareAt(i, j int) {
	lo, hi, err := s.cmp.CompareExchange(s.items[i], s.items[j])
	if err != nil {
		s.err = err
		return
	}
	s.comparisons++
	s.items[i], s.items[j] = lo, hi
}

func buildLocalIndexMap(ix, jx []int) map[int]int {
	out := make(map[int]int, len(ix)+len(jx))
	i := 0
	for _, x := range ix {
		out[x] = i
		i++
	}
	for _, y := range jx {
		out[y] = i
		i++
	}
	return out
}

func evenIndices(indices []int) []int {
	var out []int
	for i := 0; i < len(indices); i += 2 {
		out = append(out, indices[i])
	}
	return out
}

func oddIndices(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	return evenIndices(indices[1:])
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
