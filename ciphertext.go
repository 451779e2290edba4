package ppknn

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// Degree returns p-1, the advisory plaintext-range tag of this core.
// rlwe.Ciphertext has no field for it, so no ciphertext is stamped with it
// and no logic in this package branches on it.
func Degree(params Parameters) uint64 { return params.p - 1 }

// ringOf returns the ring backing ct's polynomials at ct's own level. Both
// LWE-ring and blind-rotation-ring ciphertexts are *rlwe.Ciphertext, so the
// caller supplies which ring.Ring to interpret them under.
func ringOf(ringQ *ring.Ring, ct *rlwe.Ciphertext) *ring.Ring {
	return ringQ.AtLevel(ct.Level())
}

// AddLWE returns a fresh ciphertext holding a+b, word-wise wrapping, no
// reduction of the padding bit. a and b must share the same ring and level.
func AddLWE(ringQ *ring.Ring, a, b *rlwe.Ciphertext) *rlwe.Ciphertext {
	out := a.CopyNew()
	AddLWEAssign(ringQ, a, b, out)
	return out
}

// AddLWEAssign writes a+b into out. out may alias a or b.
func AddLWEAssign(ringQ *ring.Ring, a, b, out *rlwe.Ciphertext) {
	r := ringOf(ringQ, a)
	r.Add(a.Value[0], b.Value[0], out.Value[0])
	r.Add(a.Value[1], b.Value[1], out.Value[1])
}

// SubLWE returns a fresh ciphertext holding a-b.
func SubLWE(ringQ *ring.Ring, a, b *rlwe.Ciphertext) *rlwe.Ciphertext {
	out := a.CopyNew()
	SubLWEAssign(ringQ, a, b, out)
	return out
}

// SubLWEAssign writes a-b into out. out may alias a or b.
func SubLWEAssign(ringQ *ring.Ring, a, b, out *rlwe.Ciphertext) {
	r := ringOf(ringQ, a)
	r.Sub(a.Value[0], b.Value[0], out.Value[0])
	r.Sub(a.Value[1], b.Value[1], out.Value[1])
}

// NegLWEAssign writes -a into out.
func NegLWEAssign(ringQ *ring.Ring, a, out *rlwe.Ciphertext) {
	r := ringOf(ringQ, a)
	r.Neg(a.Value[0], out.Value[0])
	r.Neg(a.Value[1], out.Value[1])
}

// AddConstantAssign adds a cleartext constant (already scaled by Delta, or
// any raw torus value the caller has prepared) to the body of ct, in place.
// Used by the comparator's special-sub and the distance engine's plaintext
// correction (spec.md §4.5 step 5, §4.6 step 2).
func AddConstantAssign(ringQ *ring.Ring, ct *rlwe.Ciphertext, constant uint64) {
	r := ringOf(ringQ, ct)
	r.AddScalar(ct.Value[0], constant, ct.Value[0])
}

// ScaleAndNegateAssign multiplies ct's mask and body by two and negates the
// result in place (spec.md §4.5 step 2: "scale by 2 and negate in place").
func ScaleAndNegateAssign(ringQ *ring.Ring, ct *rlwe.Ciphertext) {
	r := ringOf(ringQ, ct)
	r.Add(ct.Value[0], ct.Value[0], ct.Value[0])
	r.Add(ct.Value[1], ct.Value[1], ct.Value[1])
	r.Neg(ct.Value[0], ct.Value[0])
	r.Neg(ct.Value[1], ct.Value[1])
}

// TrivialLWE returns a trivial (zero-mask) LWE encryption of value: a
// ciphertext anyone can construct without a secret key, decrypting to
// value under any key. The server uses this to turn a model row's
// plaintext label into an EncItem.Class the comparator can obliviously
// permute (spec.md §6.1, "compute_distances returns distance/label
// pairs" — labels are public to the server but must still flow through
// the oblivious sorter as ciphertexts).
func TrivialLWE(params Parameters, value uint64) *rlwe.Ciphertext {
	ct := params.NewZeroLWE()
	ringQ := ringOf(params.ParamsLWE().RingQ(), ct)
	body := (value % params.P()) * params.DeltaLWE()
	ringQ.AddScalar(ct.Value[0], body, ct.Value[0])
	return ct
}

// MulPlaintextAssign multiplies ct by a cleartext polynomial (a model row,
// already in the NTT domain matching ct) and writes the result into out.
// This is the single polynomial multiplication the distance engine spends
// per model row (spec.md §4.5 step 1).
func MulPlaintextAssign(ringQ *ring.Ring, ct *rlwe.Ciphertext, row ring.Poly, out *rlwe.Ciphertext) {
	r := ringOf(ringQ, ct)
	r.MulCoeffsBarrett(ct.Value[0], row, out.Value[0])
	r.MulCoeffsBarrett(ct.Value[1], row, out.Value[1])
}
