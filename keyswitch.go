package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// LiftLWEToGLWE is the private functional packing key-switch of spec.md
// §4.3: it takes ctLWE, an LWE ciphertext over the LWE ring, and returns a
// GLWE ciphertext over the blind-rotation ring whose constant coefficient
// decrypts to ctLWE's plaintext. rlwe.Evaluator.ApplyEvaluationKey performs
// exactly this "switch to a larger ring degree" when handed an evaluation
// key generated small-key -> large-key by the large ring's key generator
// (evk.PFKS, see GenEvaluationKeys), which is the shape the teacher's own
// cross-degree re-encryption takes.
func LiftLWEToGLWE(params Parameters, evk EvaluationKeys, ctLWE *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	out := params.NewZeroGLWE()
	eval := rlwe.NewEvaluator(params.ParamsBR(), nil)
	if err := eval.ApplyEvaluationKey(ctLWE, evk.PFKS, out); err != nil {
		return nil, fmt.Errorf("ppknn: lift LWE to GLWE: %w", err)
	}
	return out, nil
}

// sampleExtract rewrites the GLWE ciphertext ct so that its constant
// coefficient, read as an LWE ciphertext over the *same* ring, decrypts to
// the plaintext coefficient ct held at index. This is the reversed/negated
// embedding the teacher's lwe.RLWEToLWESingle performs for index 0,
// generalised to an arbitrary index by first rotating ct so the wanted
// coefficient lands at position 0.
func sampleExtract(ringQ *ring.Ring, ct *rlwe.Ciphertext, index int) *rlwe.Ciphertext {
	r := ringOf(ringQ, ct)
	n := r.N()

	rotated := ct.CopyNew()
	if index != 0 {
		rotateByMonomial(r, rotated.Value[0], n-index)
		rotateByMonomial(r, rotated.Value[1], n-index)
	}

	out := rotated.CopyNew()
	reverseNegate(r, rotated.Value[1], out.Value[1])
	return out
}

// rotateByMonomial multiplies p in place by X^shift in the negacyclic ring,
// matching the teacher's lwe.MulBySmallMonomial: a cyclic coefficient
// rotation with negation of the wrapped-around coefficients.
func rotateByMonomial(r *ring.Ring, p ring.Poly, shift int) {
	n := r.N()
	shift %= n
	if shift == 0 {
		return
	}
	moduli := r.ModuliChain()
	for level := 0; level <= p.Level(); level++ {
		qi := moduli[level]
		coeffs := p.Coeffs[level]
		rotated := append(append([]uint64{}, coeffs[n-shift:]...), coeffs[:n-shift]...)
		for j := 0; j < shift; j++ {
			rotated[j] = qi - rotated[j]
		}
		copy(coeffs, rotated)
	}
}

// reverseNegate copies src into dst as a_0, -a_{n-1}, -a_{n-2}, ..., -a_1 —
// the convolution-to-dot-product rewrite every LWE extraction in this
// package relies on (teacher: lwe.RLWEToLWESingle, rgsw/lut.Evaluator).
func reverseNegate(r *ring.Ring, src, dst ring.Poly) {
	n := r.N()
	moduli := r.ModuliChain()
	for level := 0; level <= src.Level(); level++ {
		qi := moduli[level]
		s := src.Coeffs[level]
		d := dst.Coeffs[level]
		d[0] = s[0]
		for j := 1; j < n; j++ {
			d[j] = qi - s[n-j]
		}
	}
}

// ExtractAndSwitchDown performs spec.md §4.5 step 4 (sample extraction)
// followed by the ring-degree-reducing key-switch folded into every
// bootstrap output: it extracts ctGLWE's coefficient at index and
// re-encrypts the result under the LWE secret key, over the (smaller) LWE
// ring. evk.KSD must have been generated large-key -> small-key (see
// GenEvaluationKeys).
func ExtractAndSwitchDown(params Parameters, evk EvaluationKeys, ctGLWE *rlwe.Ciphertext, index int) (*rlwe.Ciphertext, error) {
	extracted := sampleExtract(params.ParamsBR().RingQ(), ctGLWE, index)

	out := params.NewZeroLWE()
	eval := rlwe.NewEvaluator(params.ParamsBR(), nil)
	if err := eval.ApplyEvaluationKey(extracted, evk.KSD, out); err != nil {
		return nil, fmt.Errorf("ppknn: extract and switch down: %w", err)
	}
	return out, nil
}
