package ppknn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// testSetup builds a fresh client/server pair under DefaultParametersLiteral,
// failing the test immediately on error, mirroring the teacher's
// testLUT-style "build params, assert.Nil(t, err)" setup idiom.
func testSetup(t *testing.T) (*ClientState, *ServerState) {
	t.Helper()
	params, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)

	client, server, err := Setup(params)
	assert.Nil(t, err)
	return client, server
}

// encLWE builds an LWE ciphertext that decrypts to value under client's
// secret key, via a trivial (zero-mask) encryption. TrivialLWE decrypts
// correctly under any key because its mask is zero, so it stands in for a
// real client-side encryption in tests that only need a known plaintext on
// the wire (spec.md §8's property tests operate over known clear values).
func encLWE(params Parameters, value uint64) *rlwe.Ciphertext {
	return TrivialLWE(params, value)
}

func TestMinCorrectness(t *testing.T) {
	client, server := testSetup(t)
	p := int(client.params.P())

	for a := 0; a < p/2; a++ {
		for b := 0; b < p/2; b++ {
			ca := encLWE(client.params, uint64(a))
			cb := encLWE(client.params, uint64(b))

			got, err := server.Comparator.Min(ca, cb)
			assert.Nil(t, err)

			decoded := decodeLWE(client.params, decryptRaw(client, got))
			want := uint64(a)
			if b < a {
				want = uint64(b)
			}
			assert.Equal(t, want, decoded, "min(%d,%d)", a, b)
		}
	}
}

func TestArgMinCorrectness(t *testing.T) {
	client, server := testSetup(t)
	p := int(client.params.P())

	for a := 0; a < p/2; a++ {
		for b := 0; b < p/2; b++ {
			ca := encLWE(client.params, uint64(a))
			cb := encLWE(client.params, uint64(b))
			ci := encLWE(client.params, 7)
			cj := encLWE(client.params, 11)

			got, err := server.Comparator.ArgMin(ca, cb, ci, cj)
			assert.Nil(t, err)

			decoded := decodeLWE(client.params, decryptRaw(client, got))
			want := uint64(7)
			if b < a {
				want = uint64(11)
			}
			assert.Equal(t, want, decoded, "argmin(%d,%d)", a, b)
		}
	}
}

func TestCompareExchangeOrdersValueAndClass(t *testing.T) {
	client, server := testSetup(t)

	x := EncItem{Value: encLWE(client.params, 5), Class: encLWE(client.params, 10)}
	y := EncItem{Value: encLWE(client.params, 2), Class: encLWE(client.params, 12)}

	lo, hi, err := server.Comparator.CompareExchange(x, y)
	assert.Nil(t, err)

	loVal, loCls := client.Decrypt(lo)
	hiVal, hiCls := client.Decrypt(hi)

	assert.Equal(t, uint64(2), loVal)
	assert.Equal(t, uint64(12), loCls)
	assert.Equal(t, uint64(5), hiVal)
	assert.Equal(t, uint64(10), hiCls)
}

// S1-S3, spec.md §8.
func TestEncSortScenarios(t *testing.T) {
	scenarios := []struct {
		name   string
		values []uint64
		want   uint64
	}{
		{"S1", []uint64{1, 0, 2, 3}, 0},
		{"S2", []uint64{2, 2, 1, 3}, 1},
		{"S3", []uint64{1, 2, 3, 0}, 0},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			client, server := testSetup(t)

			items := make([]EncItem, len(sc.values))
			for i, v := range sc.values {
				items[i] = EncItem{Value: encLWE(client.params, v), Class: encLWE(client.params, v)}
			}

			sorted, err := server.Comparator.SortTopK(items, 1)
			assert.Nil(t, err)
			assert.Len(t, sorted, 1)

			value, class := client.Decrypt(sorted[0])
			assert.Equal(t, sc.want, value)
			assert.Equal(t, sc.want, class)
		})
	}
}

// S6, spec.md §8.
func TestEncSortFullOrder(t *testing.T) {
	client, server := testSetup(t)

	values := []uint64{5, 4, 3, 2, 1}
	items := make([]EncItem, len(values))
	for i, v := range values {
		items[i] = EncItem{Value: encLWE(client.params, v), Class: encLWE(client.params, v)}
	}

	sorted, err := server.Comparator.SortTopK(items, len(items))
	assert.Nil(t, err)

	got := make([]uint64, len(sorted))
	for i, item := range sorted {
		got[i], _ = client.Decrypt(item)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, got)
}

// S4, spec.md §8.
func TestComputeRowDistance(t *testing.T) {
	client, server := testSetup(t)

	model := [][]uint64{{0, 1, 0, 0}}
	labels := []uint64{0}
	target := []uint64{2, 0, 0, 0}

	assert.Nil(t, server.LoadRows(model, labels))

	c, cSquared, err := client.MakeQuery(target)
	assert.Nil(t, err)

	distances, err := server.ComputeDistances(c, cSquared)
	assert.Nil(t, err)
	assert.Len(t, distances, 1)

	value, _ := client.Decrypt(EncItem{Value: distances[0], Class: distances[0]})
	assert.Equal(t, uint64(5)%client.params.P(), value)
}

func TestParametersEqual(t *testing.T) {
	p1, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)
	p2, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)
	assert.True(t, p1.Equal(p2))

	other := DefaultParametersLiteral
	other.MessageModulus = 8
	p3, err := NewParametersFromLiteral(other)
	assert.Nil(t, err)
	assert.False(t, p1.Equal(p3))
}

func TestSetupWithDataRejectsEmptyModel(t *testing.T) {
	params, err := NewParametersFromLiteral(DefaultParametersLiteral)
	assert.Nil(t, err)

	_, _, err = SetupWithData(params, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestLoadRowsRejectsMismatchedLabels(t *testing.T) {
	client, server := testSetup(t)
	_ = client

	err := server.LoadRows([][]uint64{{1, 2}}, nil)
	assert.NotNil(t, err)
}

// decryptRaw decrypts ct with the client's LWE decryptor and returns the raw
// (un-decoded) constant coefficient, for tests that call decodeLWE
// themselves.
func decryptRaw(c *ClientState, ct *rlwe.Ciphertext) uint64 {
	pt := c.decryptorLWE.DecryptNew(ct)
	if pt.IsNTT {
		c.params.ParamsLWE().RingQ().INTT(pt.Value, pt.Value)
	}
	return pt.Value.Coeffs[0][0]
}
