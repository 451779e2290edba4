package ppknn

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// SecretKeys holds the matched LWE and GLWE secret keys: decrypting an LWE
// ciphertext with SkLWE and decrypting the GLWE ciphertext a private
// functional packing key-switch lifts it into with SkGLWE must agree
// (spec.md §4.3, "generated once from the LWE secret key and the GLWE
// secret key").
type SecretKeys struct {
	SkLWE  *rlwe.SecretKey
	SkGLWE *rlwe.SecretKey
}

// EvaluationKeys bundles every key the server needs once setup is done: the
// private functional packing key-switch key used by the accumulator
// builder, and the key-switch used to bring a sample-extracted coefficient
// back down to the LWE ring after a bootstrap (spec.md §6.2's "key
// generation producing matched LWE/GLWE secret keys and the server
// evaluation key"). The bootstrap (blind-rotation) key itself is a
// BootstrapKey, not an EvaluationKeys field — see bootstrap.go and
// DESIGN.md for why it is not lattigo's own blindrot key format.
type EvaluationKeys struct {
	PFKS *rlwe.EvaluationKey
	KSD  *rlwe.EvaluationKey // GLWE ring -> LWE ring, post sample-extraction
}

// GenSecretKeys draws a fresh matched LWE/GLWE secret key pair.
func GenSecretKeys(params Parameters) SecretKeys {
	skLWE := rlwe.NewKeyGenerator(params.ParamsLWE()).GenSecretKeyNew()
	skGLWE := rlwe.NewKeyGenerator(params.ParamsBR()).GenSecretKeyNew()
	return SecretKeys{SkLWE: skLWE, SkGLWE: skGLWE}
}

// GenEvaluationKeys derives the server-side evaluation keys from sk. It is
// run once at setup; the result is read-only and shareable without
// synchronisation thereafter (spec.md §5, "Shared resources").
func GenEvaluationKeys(params Parameters, sk SecretKeys) EvaluationKeys {
	kgen := rlwe.NewKeyGenerator(params.ParamsBR())

	return EvaluationKeys{
		PFKS: kgen.GenEvaluationKeyNew(sk.SkLWE, sk.SkGLWE, params.EvkParams()),
		KSD:  kgen.GenEvaluationKeyNew(sk.SkGLWE, sk.SkLWE, params.EvkParams()),
	}
}
