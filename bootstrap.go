package ppknn

import (
	"github.com/tuneinsight/lattigo/v5/core/rgsw"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// BootstrapKey holds one RGSW ciphertext per coefficient of the LWE secret
// key, each living in the blind-rotation ring and encrypting that
// coefficient as a plaintext scalar. It is the server's bootstrap key
// (spec.md §6.2, "key generation producing ... the server evaluation key")
// and is read-only and shareable after setup (spec.md §5).
//
// This mirrors the teacher's rgsw/lut.Evaluator loop (SkPos/SkNeg per LWE
// coefficient), collapsed to one ciphertext per coefficient because this
// scheme uses a binary LWE secret: CMux(RGSW(s_j), rotated, original)
// needs only s_j itself, not a signed pair.
type BootstrapKey struct {
	bits []*rgsw.Ciphertext
}

// GenBootstrapKey encrypts every coefficient of sk.SkLWE under sk.SkGLWE as
// an RGSW ciphertext over the blind-rotation ring.
func GenBootstrapKey(params Parameters, sk SecretKeys) *BootstrapKey {
	ringLWE := params.ParamsLWE().RingQ()
	n := ringLWE.N()

	skCopy := sk.SkLWE.CopyNew()
	ringLWE.AtLevel(0).INTT(skCopy.Value.Q, skCopy.Value.Q)
	ringLWE.AtLevel(0).IMForm(skCopy.Value.Q, skCopy.Value.Q)

	qi := ringLWE.ModuliChain()[0]
	coeffs := skCopy.Value.Q.Coeffs[0]

	levelQ, levelP, base, _ := rlwe.ResolveEvaluationKeyParameters(*params.ParamsBR().GetRLWEParameters(), []rlwe.EvaluationKeyParameters{params.EvkParams()})

	enc := rgsw.NewEncryptor(params.ParamsBR(), sk.SkGLWE)
	ringBR := params.ParamsBR().RingQ()

	bits := make([]*rgsw.Ciphertext, n)
	for j := 0; j < n; j++ {
		s := centeredCoeff(qi, coeffs[j])

		pt := rlwe.NewPlaintext(params.ParamsBR(), params.ParamsBR().MaxLevel())
		if s < 0 {
			pt.Value.Coeffs[0][0] = qi - uint64(-s)
		} else {
			pt.Value.Coeffs[0][0] = uint64(s)
		}
		ringBR.NTT(pt.Value, pt.Value)

		ct := rgsw.NewCiphertext(params.ParamsBR(), levelQ, levelP, base)
		if err := enc.Encrypt(pt, ct); err != nil {
			panic(err)
		}
		bits[j] = ct
	}

	return &BootstrapKey{bits: bits}
}

// centeredCoeff lifts a mod-qi residue to its centred representative in
// (-qi/2, qi/2], matching the teacher's PolyToBigintCentered convention.
func centeredCoeff(qi, v uint64) int64 {
	if v > qi>>1 {
		return int64(v) - int64(qi)
	}
	return int64(v)
}

// modSwitchTo2N rounds every coefficient of src (read at level 0 of ringQ)
// from modulus Q to modulus 2N, writing the result into dst.Coeffs[0] as
// plain uint64s in [0, 2N). Grounded on the teacher's
// rgsw/lut.Evaluator.ModSwitchRLWETo2NLvl.
func modSwitchTo2N(ringQ *ring.Ring, src ring.Poly, twoN uint64, dst []uint64) {
	qi := ringQ.ModuliChain()[0]
	coeffs := src.Coeffs[0]
	for i := range dst {
		// round(x * 2N / Q)
		num := coeffs[i]*twoN + qi/2
		dst[i] = (num / qi) % twoN
	}
}

// rotateGLWEAssign writes X^shift * ct into out, where shift is a public
// integer already reduced modulo 2N (negacyclic rotation: wrap-around
// coefficients are negated).
func rotateGLWEAssign(ringQ *ring.Ring, ct *rlwe.Ciphertext, shift int, out *rlwe.Ciphertext) {
	r := ringOf(ringQ, ct)
	n := r.N()
	shift %= 2 * n
	out.Value[0].Copy(&ct.Value[0])
	out.Value[1].Copy(&ct.Value[1])
	r.INTT(out.Value[0], out.Value[0])
	r.INTT(out.Value[1], out.Value[1])
	rotateNegacyclic(r, out.Value[0], shift, n)
	rotateNegacyclic(r, out.Value[1], shift, n)
	r.NTT(out.Value[0], out.Value[0])
	r.NTT(out.Value[1], out.Value[1])
}

// rotateNegacyclic multiplies p by X^shift in place in the coefficient
// domain, where shift may exceed n (the extra half-turn negates again).
func rotateNegacyclic(r *ring.Ring, p ring.Poly, shift, n int) {
	neg := false
	if shift >= n {
		shift -= n
		neg = true
	}
	if shift == 0 {
		if neg {
			for level := 0; level <= p.Level(); level++ {
				negateLevel(r, p.Coeffs[level], level)
			}
		}
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
		if neg {
			for j := range rotated {
				if rotated[j] != 0 {
					rotated[j] = qi - rotated[j]
				}
			}
		}
		copy(coeffs, rotated)
	}
}

func negateLevel(r *ring.Ring, coeffs []uint64, level int) {
	qi := r.ModuliChain()[level]
	for j := range coeffs {
		if coeffs[j] != 0 {
			coeffs[j] = qi - coeffs[j]
		}
	}
}

// Bootstrap performs the programmable bootstrap of spec.md §4.6 step 3: it
// blind-rotates the encrypted accumulator acc by the secret amount carried
// in diff, returning a fresh GLWE ciphertext with the accumulator's
// content rotated into position 0. It is a CMux-based (GINX-style) blind
// rotation, grounded on the teacher's rgsw/lut.Evaluator.Evaluate loop:
// per LWE coefficient j, acc is conditionally rotated by the public amount
// a_j, the condition being the encrypted secret bit bsk.bits[j].
func Bootstrap(params Parameters, bsk *BootstrapKey, diff, acc *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	ringLWE := params.ParamsLWE().RingQ()
	ringBR := params.ParamsBR().RingQ()
	n := ringLWE.N()
	twoN := uint64(2 * params.N())

	bodyPoly := ringOf(ringLWE, diff).NewPoly()
	maskPoly := ringOf(ringLWE, diff).NewPoly()
	ringLWE.AtLevel(diff.Level()).INTT(diff.Value[0], bodyPoly)
	ringLWE.AtLevel(diff.Level()).INTT(diff.Value[1], maskPoly)

	mask2N := make([]uint64, n)
	body2N := make([]uint64, n)
	modSwitchTo2N(ringLWE.AtLevel(diff.Level()), maskPoly, twoN, mask2N)
	modSwitchTo2N(ringLWE.AtLevel(diff.Level()), bodyPoly, twoN, body2N)

	b := int(body2N[0])

	current := acc.CopyNew()
	rotateGLWEAssign(ringBR, current, b, current)

	rgswEval := rgsw.NewEvaluator(params.ParamsBR(), nil)
	tmp := params.NewZeroGLWE()
	rotated := params.NewZeroGLWE()

	evFullBR := params.ParamsBR().RingQ()
	for j := 0; j < n; j++ {
		aj := int(mask2N[j])
		if aj == 0 {
			continue
		}
		rotateGLWEAssign(evFullBR, current, aj, rotated)
		SubLWEAssign(evFullBR, rotated, current, tmp)
		rgswEval.ExternalProduct(tmp, bsk.bits[j], tmp)
		AddLWEAssign(evFullBR, current, tmp, current)
	}

	return current, nil
}
