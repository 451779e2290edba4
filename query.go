package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// MakeQuery implements spec.md §4.8: it encodes a gamma-long plaintext
// target as the two GLWE ciphertexts the distance engine consumes.
//
//	C  = encrypt( Sum_{j=0}^{gamma-1} Delta*q_j * X^j )
//	C2 = encrypt( (Sum_j (Delta*q_j)*(Delta*q_j)) * X^{gamma-1} )
//
// The X^{gamma-1} placement lines the sum-of-squares term up with the
// coefficient the distance engine extracts (spec.md §4.5 step 4).
func (c *ClientState) MakeQuery(target []uint64) (*rlwe.Ciphertext, *rlwe.Ciphertext, error) {
	gamma := len(target)
	if gamma == 0 {
		return nil, nil, ErrEmptyModel
	}
	if gamma > c.params.N() {
		return nil, nil, fmt.Errorf("%w: gamma=%d, N=%d", ErrRowTooLong, gamma, c.params.N())
	}

	ringQ := c.params.ParamsBR().RingQ()
	delta := c.params.DeltaBR()

	ptC := rlwe.NewPlaintext(c.params.ParamsBR(), c.params.ParamsBR().MaxLevel())
	var sumSquares uint64
	for j, q := range target {
		scaled := delta * q
		ptC.Value.Coeffs[0][j] = scaled
		sumSquares += scaled * scaled
	}
	ringQ.NTT(ptC.Value, ptC.Value)

	ptC2 := rlwe.NewPlaintext(c.params.ParamsBR(), c.params.ParamsBR().MaxLevel())
	ptC2.Value.Coeffs[0][gamma-1] = sumSquares
	ringQ.NTT(ptC2.Value, ptC2.Value)

	cC, err := c.encryptorGLWE.EncryptNew(ptC)
	if err != nil {
		return nil, nil, fmt.Errorf("ppknn: make query: %w", err)
	}
	cC2, err := c.encryptorGLWE.EncryptNew(ptC2)
	if err != nil {
		return nil, nil, fmt.Errorf("ppknn: make query: %w", err)
	}

	return cC, cC2, nil
}
