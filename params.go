// Package ppknn implements private k-nearest-neighbour classification over
// fully homomorphically encrypted data. A client holds a query vector, a
// server holds a labelled model; the server returns the encrypted labels of
// the k closest model rows without learning the query, the distances, or
// which rows were chosen.
//
// The scheme follows the TFHE family: queries and model rows live in GLWE
// ciphertexts so that squared distances fall out of a single polynomial
// multiplication, while the comparator and Batcher sorter operate on LWE
// ciphertexts refreshed by programmable bootstrapping (blind rotation).
package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/utils"
)

// ParametersLiteral is the user-facing, unchecked description of a ppknn
// parameter set. It mirrors rlwe.ParametersLiteral's role: a plain value
// type that NewParametersFromLiteral validates and freezes into Parameters.
type ParametersLiteral struct {
	// LogNLWE is the log2 ring degree of the LWE-dimension ring. LWE
	// samples (queries re-keyed down after sample extraction, comparator
	// inputs/outputs) live here.
	LogNLWE int
	QLWE    []uint64

	// LogNBR is the log2 ring degree of the blind-rotation ring. GLWE
	// ciphertexts (queries, model rows, the sort-key accumulator) live
	// here.
	LogNBR int
	QBR    []uint64

	// MessageModulus p is the number of distinct plaintext values a
	// single coefficient carries (the comparator truth table, quantized
	// features, and class labels all live mod p). The carry modulus is
	// fixed at 1: this scheme budgets no headroom above the message for
	// carry propagation, matching the original ppknn construction.
	MessageModulus uint64

	// BaseTwoDecomposition configures the gadget decomposition used by
	// every evaluation/blind-rotation key generated under these
	// parameters. Smaller values shrink noise growth at the cost of
	// larger keys.
	BaseTwoDecomposition int
}

// Parameters is the immutable, validated parameter set threaded through
// every component. Like rlwe.Parameters its fields are private; construct
// one with NewParametersFromLiteral.
type Parameters struct {
	paramsLWE rlwe.Parameters
	paramsBR  rlwe.Parameters

	p     uint64
	carry uint64

	evkParams rlwe.EvaluationKeyParameters
}

// NewParametersFromLiteral validates lit and derives the two rlwe.Parameters
// instances (LWE ring, blind-rotation ring) it implies.
func NewParametersFromLiteral(lit ParametersLiteral) (Parameters, error) {
	if lit.MessageModulus < 2 {
		return Parameters{}, fmt.Errorf("ppknn: message modulus must be at least 2, got %d", lit.MessageModulus)
	}

	paramsLWE, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    lit.LogNLWE,
		Q:       lit.QLWE,
		NTTFlag: true,
	})
	if err != nil {
		return Parameters{}, fmt.Errorf("ppknn: LWE ring parameters: %w", err)
	}

	paramsBR, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    lit.LogNBR,
		Q:       lit.QBR,
		NTTFlag: true,
	})
	if err != nil {
		return Parameters{}, fmt.Errorf("ppknn: blind-rotation ring parameters: %w", err)
	}

	base := lit.BaseTwoDecomposition
	if base == 0 {
		base = 4
	}

	return Parameters{
		paramsLWE: paramsLWE,
		paramsBR:  paramsBR,
		p:         lit.MessageModulus,
		carry:     1,
		evkParams: rlwe.EvaluationKeyParameters{BaseTwoDecomposition: utils.Pointy(base)},
	}, nil
}

// ParamsLWE returns the rlwe.Parameters governing LWE-ring ciphertexts.
func (p Parameters) ParamsLWE() rlwe.Parameters { return p.paramsLWE }

// ParamsBR returns the rlwe.Parameters governing the blind-rotation ring.
func (p Parameters) ParamsBR() rlwe.Parameters { return p.paramsBR }

// EvkParams returns the gadget-decomposition settings shared by every
// evaluation key and blind-rotation key generated under p.
func (p Parameters) EvkParams() rlwe.EvaluationKeyParameters { return p.evkParams }

// P returns the message modulus.
func (p Parameters) P() uint64 { return p.p }

// Carry returns the carry modulus (always 1 in this scheme).
func (p Parameters) Carry() uint64 { return p.carry }

// N returns the blind-rotation ring's polynomial degree, i.e. the maximum
// number of model-row features (gamma) a single GLWE ciphertext can pack.
func (p Parameters) N() int { return p.paramsBR.N() }

// DeltaLWE is the scaling factor mapping a plaintext value in [0, p*carry)
// to its representation in the LWE ring, Delta = Q_LWE/(p*carry) — the
// convention the worked example (rgsw_blind_rotations) uses for its own
// LWE-side scale (scaleLWE := paramsLWE.Q()[0]/4). Every ciphertext living
// in the LWE ring (TrivialLWE, the comparator's special-sub offset, the
// distance engine's plaintext correction, decoding) is scaled by this, not
// a fixed constant: the LWE ring's modulus is 12289 in
// DefaultParametersLiteral, not 2^64.
func (p Parameters) DeltaLWE() uint64 {
	return p.paramsLWE.Q()[0] / (p.p * p.carry)
}

// DeltaBR is DeltaLWE's counterpart for ciphertexts in the blind-rotation
// ring (the client's query C/C², spec.md §4.8), Delta = Q_BR/(p*carry).
func (p Parameters) DeltaBR() uint64 {
	return p.paramsBR.Q()[0] / (p.p * p.carry)
}

// NewZeroLWE returns a fresh, zero-valued degree-1 ciphertext over the
// LWE ring at its maximum level.
func (p Parameters) NewZeroLWE() *rlwe.Ciphertext {
	return rlwe.NewCiphertext(p.paramsLWE, 1, p.paramsLWE.MaxLevel())
}

// NewZeroGLWE returns a fresh, zero-valued degree-1 ciphertext over the
// blind-rotation ring at its maximum level.
func (p Parameters) NewZeroGLWE() *rlwe.Ciphertext {
	return rlwe.NewCiphertext(p.paramsBR, 1, p.paramsBR.MaxLevel())
}

// Equal reports whether p and other describe the same ring dimensions,
// moduli and message modulus. Used to reject a KeyBlob generated under a
// different parameter set (see ErrParameterMismatch).
func (p Parameters) Equal(other Parameters) bool {
	return p.paramsLWE.Equal(&other.paramsLWE) &&
		p.paramsBR.Equal(&other.paramsBR) &&
		p.p == other.p &&
		p.carry == other.carry
}

// DefaultParametersLiteral is a parameter set sized for tests: small enough
// to keep unit tests fast, large enough that the LWE and blind-rotation
// rings are distinct dimensions, matching the two-ring construction used
// throughout this package.
var DefaultParametersLiteral = ParametersLiteral{
	LogNLWE:              9,
	QLWE:                 []uint64{0x3001},
	LogNBR:               10,
	QBR:                  []uint64{0x7fff801},
	MessageModulus:       16,
	BaseTwoDecomposition: 7,
}
