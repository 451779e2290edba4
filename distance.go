package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/ring"
)

// ModelRow is one reversed, zero-padded model-vector polynomial plus the
// sum of its squared (quantized) features, used for the plaintext
// correction in ComputeRowDistance (spec.md §3, "Model row").
type ModelRow struct {
	Poly         ring.Poly
	SquaredNorm  uint64 // Sum_j m_{i,j}^2, in the plaintext (unscaled) domain
}

// ComputeRowDistance implements spec.md §4.5's per-row computation:
//
//	d_i = C^2 - 2*<m_i, q> + Sum_j m_{i,j}^2
//
// where the inner product falls out as the coefficient of X^{gamma-1} in
// row.Poly(X) * C(X), because model rows are stored reversed (spec.md §9,
// "Why the X^{gamma-1} coefficient?").
func ComputeRowDistance(params Parameters, evk EvaluationKeys, row ModelRow, c, cSquared *rlwe.Ciphertext, gamma int) (*rlwe.Ciphertext, error) {
	ringQ := params.ParamsBR().RingQ()

	g := params.NewZeroGLWE()
	MulPlaintextAssign(ringQ, c, row.Poly, g)

	ScaleAndNegateAssign(ringQ, g)

	AddLWEAssign(ringQ, g, cSquared, g)

	extracted, err := ExtractAndSwitchDown(params, evk, g, gamma-1)
	if err != nil {
		return nil, fmt.Errorf("ppknn: compute row distance: %w", err)
	}

	correction := params.DeltaLWE() * ((params.P() - row.SquaredNorm%params.P()) % params.P())
	AddConstantAssign(params.ParamsLWE().RingQ(), extracted, correction)

	return extracted, nil
}
