package ppknn

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v5/core/rgsw"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// KeyBlob is the on-disk form of a ppknn key pair: the parameters (so a
// load can detect a mismatch before any ciphertext is touched), the
// client's secret keys, and the server's evaluation and bootstrap keys
// (spec.md §6.3, "persisted KeyBlob with parameter-mismatch-on-load
// abort").
type KeyBlob struct {
	Params Parameters
	Secret SecretKeys
	Eval   EvaluationKeys
	Boot   *BootstrapKey
}

// NewKeyBlob bundles a freshly-generated key pair for persistence.
func NewKeyBlob(params Parameters, sk SecretKeys, evk EvaluationKeys, bsk *BootstrapKey) KeyBlob {
	return KeyBlob{Params: params, Secret: sk, Eval: evk, Boot: bsk}
}

// Persist writes the blob to w as a sequence of length-prefixed,
// self-describing lattigo objects, in the style of
// rlwe.Parameters.WriteTo.
func (b KeyBlob) Persist(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := b.Params.ParamsLWE().WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: LWE parameters: %w", err)
	}
	if _, err := b.Params.ParamsBR().WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: blind-rotation parameters: %w", err)
	}
	if err := writeUint64(bw, b.Params.P()); err != nil {
		return fmt.Errorf("ppknn: persist key blob: message modulus: %w", err)
	}

	if _, err := b.Secret.SkLWE.WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: LWE secret key: %w", err)
	}
	if _, err := b.Secret.SkGLWE.WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: GLWE secret key: %w", err)
	}

	if _, err := b.Eval.PFKS.WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: PFKS key: %w", err)
	}
	if _, err := b.Eval.KSD.WriteTo(bw); err != nil {
		return fmt.Errorf("ppknn: persist key blob: key-switch-down key: %w", err)
	}

	if err := writeBootstrapKey(bw, b.Boot); err != nil {
		return fmt.Errorf("ppknn: persist key blob: bootstrap key: %w", err)
	}

	return bw.Flush()
}

// Load reads a blob from r and checks it against params before returning
// it. A parameter mismatch aborts with ErrParameterMismatch rather than
// risk operating on ciphertexts under the wrong ring (spec.md §6.3).
func Load(r io.Reader, params Parameters) (KeyBlob, error) {
	br := bufio.NewReader(r)

	var loadedLWE, loadedBR rlwe.Parameters
	if _, err := loadedLWE.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: LWE parameters: %w", err)
	}
	if _, err := loadedBR.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: blind-rotation parameters: %w", err)
	}
	p, err := readUint64(br)
	if err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: message modulus: %w", err)
	}

	loaded := Parameters{paramsLWE: loadedLWE, paramsBR: loadedBR, p: p, carry: 1, evkParams: params.evkParams}
	if !loaded.Equal(params) {
		return KeyBlob{}, ErrParameterMismatch
	}

	skLWE := rlwe.NewSecretKey(params.ParamsLWE())
	if _, err := skLWE.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: LWE secret key: %w", err)
	}
	skGLWE := rlwe.NewSecretKey(params.ParamsBR())
	if _, err := skGLWE.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: GLWE secret key: %w", err)
	}

	pfks := rlwe.NewEvaluationKey(params.ParamsBR())
	if _, err := pfks.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: PFKS key: %w", err)
	}
	ksd := rlwe.NewEvaluationKey(params.ParamsBR())
	if _, err := ksd.ReadFrom(br); err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: key-switch-down key: %w", err)
	}

	bsk, err := readBootstrapKey(br, params)
	if err != nil {
		return KeyBlob{}, fmt.Errorf("ppknn: load key blob: bootstrap key: %w", err)
	}

	return KeyBlob{
		Params: params,
		Secret: SecretKeys{SkLWE: skLWE, SkGLWE: skGLWE},
		Eval:   EvaluationKeys{PFKS: pfks, KSD: ksd},
		Boot:   bsk,
	}, nil
}

func writeUint64(w io.Writer, v uint64) error {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, err := w.Write(buf)
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v, nil
}

// writeBootstrapKey serialises a BootstrapKey as a count followed by each
// RGSW ciphertext's own WriteTo encoding.
func writeBootstrapKey(w io.Writer, bsk *BootstrapKey) error {
	if err := writeUint64(w, uint64(len(bsk.bits))); err != nil {
		return err
	}
	for _, ct := range bsk.bits {
		if _, err := ct.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func readBootstrapKey(r io.Reader, params Parameters) (*BootstrapKey, error) {
	n, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	levelQ, levelP, base, _ := rlwe.ResolveEvaluationKeyParameters(
		*params.ParamsBR().GetRLWEParameters(),
		[]rlwe.EvaluationKeyParameters{params.EvkParams()},
	)

	bits := make([]*rgsw.Ciphertext, n)
	for i := range bits {
		ct := rgsw.NewCiphertext(params.ParamsBR(), levelQ, levelP, base)
		if _, err := ct.ReadFrom(r); err != nil {
			return nil, err
		}
		bits[i] = ct
	}
	return &BootstrapKey{bits: bits}, nil
}
