package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// EncItem is a (value, class) pair travelling together through the sorter
// (spec.md §3). Value carries the distance, Class the label.
type EncItem struct {
	Value *rlwe.Ciphertext
	Class *rlwe.Ciphertext
}

// Comparator evaluates oblivious min/argmin over LWE ciphertexts via one
// programmable bootstrap each (spec.md §4.6). It holds every read-only key
// material the bootstrap needs; a single Comparator is safe to share across
// goroutines once setup has completed (spec.md §5).
type Comparator struct {
	Params Parameters
	Evk    EvaluationKeys
	Bsk    *BootstrapKey
}

// NewComparator bundles the parameters and keys a Min/ArgMin call needs.
func NewComparator(params Parameters, evk EvaluationKeys, bsk *BootstrapKey) *Comparator {
	return &Comparator{Params: params, Evk: evk, Bsk: bsk}
}

// specialSub computes diff = (b - a) + (p/2)*DeltaLWE, the offset that
// shifts the sign test so that a <= b selects the accumulator's upper half
// and a > b selects the lower half (spec.md §4.6 step 2, "special-sub"). a
// and b live in the LWE ring, so the offset is scaled by DeltaLWE, not a
// ring-independent constant.
func (c *Comparator) specialSub(a, b *rlwe.Ciphertext) *rlwe.Ciphertext {
	ringQ := c.Params.ParamsLWE().RingQ()
	diff := SubLWE(ringQ, b, a)
	offset := (c.Params.P() / 2) * c.Params.DeltaLWE()
	AddConstantAssign(ringQ, diff, offset)
	return diff
}

// pbs builds the two-valued accumulator over (left, right), blind-rotates
// it by diff, and extracts+key-switches the result back to an LWE
// ciphertext — the full "apply programmable bootstrap" of spec.md §4.6
// step 3, assembled from §4.4's accumulator builder and §4.3/§4.5's
// key-switching primitives.
func (c *Comparator) pbs(diff, left, right *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	acc, err := BuildAccumulator(c.Params, c.Evk, left, right)
	if err != nil {
		return nil, fmt.Errorf("ppknn: pbs: %w", err)
	}
	rotated, err := Bootstrap(c.Params, c.Bsk, diff, acc)
	if err != nil {
		return nil, fmt.Errorf("ppknn: pbs: %w", err)
	}
	return ExtractAndSwitchDown(c.Params, c.Evk, rotated, 0)
}

// Min returns an LWE ciphertext of min(a, b) with refreshed noise.
func (c *Comparator) Min(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	diff := c.specialSub(a, b)
	return c.pbs(diff, a, b)
}

// ArgMin returns an LWE ciphertext of i if a <= b, else j — the class
// carried alongside the value compared via Min.
func (c *Comparator) ArgMin(a, b, i, j *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	diff := c.specialSub(a, b)
	return c.pbs(diff, i, j)
}

// CompareExchange implements spec.md §4.6's EncItem compare-exchange:
// min_value/min_class come from fresh, bootstrapped comparisons; max is
// recovered by raw (non-bootstrapped) subtraction of the fresh min from
// the noisy sum, intentionally left unrefreshed (see spec.md §9,
// "Max recovery uses raw, non-bootstrapped arithmetic").
func (c *Comparator) CompareExchange(x, y EncItem) (lo, hi EncItem, err error) {
	ringQ := c.Params.ParamsLWE().RingQ()

	minValue, err := c.Min(x.Value, y.Value)
	if err != nil {
		return EncItem{}, EncItem{}, err
	}
	minClass, err := c.ArgMin(x.Value, y.Value, x.Class, y.Class)
	if err != nil {
		return EncItem{}, EncItem{}, err
	}

	sumValue := AddLWE(ringQ, x.Value, y.Value)
	maxValue := SubLWE(ringQ, sumValue, minValue)

	sumClass := AddLWE(ringQ, x.Class, y.Class)
	maxClass := SubLWE(ringQ, sumClass, minClass)

	return EncItem{Value: minValue, Class: minClass}, EncItem{Value: maxValue, Class: maxClass}, nil
}
