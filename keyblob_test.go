package ppknn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBlobRoundTrip(t *testing.T) {
	params, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)

	sk := GenSecretKeys(params)
	evk := GenEvaluationKeys(params, sk)
	bsk := GenBootstrapKey(params, sk)
	blob := NewKeyBlob(params, sk, evk, bsk)

	var buf bytes.Buffer
	assert.Nil(t, blob.Persist(&buf))

	loaded, err := Load(&buf, params)
	assert.Nil(t, err)
	assert.Equal(t, len(bsk.bits), len(loaded.Boot.bits))

	client := newClientState(params, loaded.Secret)
	cmp := NewComparator(params, loaded.Eval, loaded.Boot)

	a := TrivialLWE(params, 3)
	b := TrivialLWE(params, 5)
	got, err := cmp.Min(a, b)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), decodeLWE(params, decryptRaw(client, got)))
}

func TestKeyBlobLoadRejectsParameterMismatch(t *testing.T) {
	params, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)

	sk := GenSecretKeys(params)
	evk := GenEvaluationKeys(params, sk)
	bsk := GenBootstrapKey(params, sk)
	blob := NewKeyBlob(params, sk, evk, bsk)

	var buf bytes.Buffer
	assert.Nil(t, blob.Persist(&buf))

	other := DefaultParametersLiteral
	other.MessageModulus = 8
	otherParams, err := NewParametersFromLiteral(other)
	assert.Nil(t, err)

	_, err = Load(&buf, otherParams)
	assert.ErrorIs(t, err, ErrParameterMismatch)
}
