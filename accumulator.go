package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// buildHalfIndicator builds, in the coefficient domain, the plaintext
// polynomial that is 1 on [lo, hi) and 0 elsewhere, negates its first c/2
// coefficients, and rotates the whole polynomial left by c/2 (spec.md §4.4
// steps 2-3). This placement is what lines the "left half answers left,
// right half answers right" truth table up with how the blind-rotation
// accumulator indexes its slots.
func buildHalfIndicator(ringQ *ring.Ring, lo, hi, c int) ring.Poly {
	poly := ringQ.NewPoly()
	moduli := ringQ.ModuliChain()

	for level := 0; level <= poly.Level(); level++ {
		qi := moduli[level]
		coeffs := poly.Coeffs[level]
		for i := lo; i < hi; i++ {
			coeffs[i] = 1
		}
		for i := 0; i < c/2; i++ {
			if coeffs[i] != 0 {
				coeffs[i] = qi - coeffs[i]
			}
		}
		rotated := append(append([]uint64{}, coeffs[c/2:]...), coeffs[:c/2]...)
		copy(coeffs, rotated)
	}

	ringQ.NTT(poly, poly)
	return poly
}

// BuildAccumulator implements spec.md §4.4: given two LWE inputs left and
// right, it returns the GLWE "truth table" ciphertext whose lower half
// decodes to left and upper half to right, ready to drive one programmable
// bootstrap.
func BuildAccumulator(params Parameters, evk EvaluationKeys, left, right *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	n := params.N()
	h := n / 2
	c := n / int(params.P())
	if c < 2 {
		return nil, fmt.Errorf("ppknn: message modulus %d too large for ring degree %d", params.P(), n)
	}

	ringQ := params.ParamsBR().RingQ()
	lPoly := buildHalfIndicator(ringQ, 0, h, c)
	rPoly := buildHalfIndicator(ringQ, h, n, c)

	liftedLeft, err := LiftLWEToGLWE(params, evk, left)
	if err != nil {
		return nil, fmt.Errorf("ppknn: build accumulator: %w", err)
	}
	liftedRight, err := LiftLWEToGLWE(params, evk, right)
	if err != nil {
		return nil, fmt.Errorf("ppknn: build accumulator: %w", err)
	}

	leftTerm := params.NewZeroGLWE()
	rightTerm := params.NewZeroGLWE()
	MulPlaintextAssign(ringQ, liftedLeft, lPoly, leftTerm)
	MulPlaintextAssign(ringQ, liftedRight, rPoly, rightTerm)

	acc := params.NewZeroGLWE()
	AddLWEAssign(ringQ, leftTerm, rightTerm, acc)
	return acc, nil
}
