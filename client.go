package ppknn

import (
	"math"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// ClientState is the client side of a ppknn session: it holds the secret
// keys, encrypts queries (query.go) and decrypts the server's sorted
// EncItems (spec.md §6.1, "ClientState.decrypt").
type ClientState struct {
	params Parameters
	sk     SecretKeys

	encryptorGLWE *rlwe.Encryptor
	decryptorLWE  *rlwe.Decryptor
	decryptorGLWE *rlwe.Decryptor
}

func newClientState(params Parameters, sk SecretKeys) *ClientState {
	return &ClientState{
		params:        params,
		sk:            sk,
		encryptorGLWE: rlwe.NewEncryptor(params.ParamsBR(), sk.SkGLWE),
		decryptorLWE:  rlwe.NewDecryptor(params.ParamsLWE(), sk.SkLWE),
		decryptorGLWE: rlwe.NewDecryptor(params.ParamsBR(), sk.SkGLWE),
	}
}

// decodeLWE rounds an LWE plaintext coefficient to the nearest multiple of
// DeltaLWE and reduces it mod p, recovering the encoded integer.
func decodeLWE(params Parameters, raw uint64) uint64 {
	delta := params.DeltaLWE()
	rounded := (raw + delta/2) / delta
	return rounded % params.P()
}

// Decrypt decrypts both halves of an EncItem and decodes them mod p
// (spec.md §6.1, "ClientState.decrypt").
func (c *ClientState) Decrypt(item EncItem) (value, class uint64) {
	ptV := c.decryptorLWE.DecryptNew(item.Value)
	if ptV.IsNTT {
		c.params.ParamsLWE().RingQ().INTT(ptV.Value, ptV.Value)
	}
	value = decodeLWE(c.params, ptV.Value.Coeffs[0][0])

	ptC := c.decryptorLWE.DecryptNew(item.Class)
	if ptC.IsNTT {
		c.params.ParamsLWE().RingQ().INTT(ptC.Value, ptC.Value)
	}
	class = decodeLWE(c.params, ptC.Value.Coeffs[0][0])

	return value, class
}

// LWENoise decrypts ct without rounding and returns the absolute distance,
// as a fraction of DeltaLWE, between the raw decrypted coefficient and the
// nearest point encoding expected. A value near 0 means healthy noise; a
// value approaching 0.5 means decryption is about to fail (mirrors the
// original implementation's client.lwe_noise, used to populate the CLI's
// "noise" column).
func (c *ClientState) LWENoise(ct *rlwe.Ciphertext, expected uint64) float64 {
	pt := c.decryptorLWE.DecryptNew(ct)
	if pt.IsNTT {
		c.params.ParamsLWE().RingQ().INTT(pt.Value, pt.Value)
	}
	raw := pt.Value.Coeffs[0][0]

	delta := c.params.DeltaLWE()
	q := c.params.ParamsLWE().Q()[0]
	target := (delta * (expected % c.params.P())) % q

	diff := int64(raw) - int64(target)
	if diff < 0 {
		diff = -diff
	}
	if wrapped := int64(q) - diff; wrapped < diff {
		diff = wrapped
	}

	return math.Abs(float64(diff)) / float64(delta)
}
