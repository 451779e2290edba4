package ppknn

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// ServerState is the server side of a ppknn session: the evaluation keys,
// bootstrap key, comparator and model rows (spec.md §6.1,
// "ServerState.compute_distances").
type ServerState struct {
	params     Parameters
	evk        EvaluationKeys
	bsk        *BootstrapKey
	Comparator *Comparator

	rows   []ModelRow
	labels []uint64
	gamma  int
}

// Setup generates a fresh matched key pair and the server's evaluation and
// bootstrap keys, with no model loaded (spec.md §6.1, "setup(params)").
func Setup(params Parameters) (*ClientState, *ServerState, error) {
	sk := GenSecretKeys(params)
	evk := GenEvaluationKeys(params, sk)
	bsk := GenBootstrapKey(params, sk)

	client := newClientState(params, sk)
	server := &ServerState{
		params:     params,
		evk:        evk,
		bsk:        bsk,
		Comparator: NewComparator(params, evk, bsk),
	}
	return client, server, nil
}

// SetupWithData runs Setup and additionally loads rows and their labels
// into the server, reversing and zero-padding each row to the
// blind-rotation ring degree (spec.md §6.1, "setup_with_data"; spec.md §3,
// "Model row").
func SetupWithData(params Parameters, rows [][]uint64, labels []uint64) (*ClientState, *ServerState, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptyModel
	}

	client, server, err := Setup(params)
	if err != nil {
		return nil, nil, err
	}
	if err := server.LoadRows(rows, labels); err != nil {
		return nil, nil, err
	}
	return client, server, nil
}

// LoadRows stores rows as reversed, zero-padded polynomials, keeps labels
// alongside them, and records gamma, the longest row length.
func (s *ServerState) LoadRows(rows [][]uint64, labels []uint64) error {
	if len(rows) == 0 {
		return ErrEmptyModel
	}
	if len(labels) != len(rows) {
		return fmt.Errorf("ppknn: load rows: %d rows but %d labels", len(rows), len(labels))
	}

	gamma := 0
	for _, row := range rows {
		if len(row) > gamma {
			gamma = len(row)
		}
	}
	if gamma > s.params.N() {
		return fmt.Errorf("%w: gamma=%d, N=%d", ErrRowTooLong, gamma, s.params.N())
	}

	ringQ := s.params.ParamsBR().RingQ()
	modelRows := make([]ModelRow, len(rows))
	for i, row := range rows {
		poly := ringQ.NewPoly()
		var squaredNorm uint64
		for j, v := range row {
			poly.Coeffs[0][gamma-1-j] = v
			squaredNorm += v * v
		}
		ringQ.NTT(poly, poly)
		modelRows[i] = ModelRow{Poly: poly, SquaredNorm: squaredNorm}
	}

	s.rows = modelRows
	s.labels = append([]uint64(nil), labels...)
	s.gamma = gamma
	return nil
}

// Gamma returns the longest row length recorded at setup.
func (s *ServerState) Gamma() int { return s.gamma }

// ComputeDistances implements spec.md §4.5: it returns one LWE ciphertext
// of squared distance per model row, in row order.
func (s *ServerState) ComputeDistances(c, cSquared *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	out := make([]*rlwe.Ciphertext, len(s.rows))
	for i, row := range s.rows {
		d, err := ComputeRowDistance(s.params, s.evk, row, c, cSquared, s.gamma)
		if err != nil {
			return nil, fmt.Errorf("ppknn: compute distances: row %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// ComputeDistancesWithLabels is ComputeDistances plus each row's label,
// trivially encrypted into an EncItem ready for the comparator/sorter
// (spec.md §6.1, "compute_distances_with_labels").
func (s *ServerState) ComputeDistancesWithLabels(c, cSquared *rlwe.Ciphertext) ([]EncItem, error) {
	distances, err := s.ComputeDistances(c, cSquared)
	if err != nil {
		return nil, err
	}
	items := make([]EncItem, len(distances))
	for i, d := range distances {
		items[i] = EncItem{Value: d, Class: TrivialLWE(s.params, s.labels[i])}
	}
	return items, nil
}

// ComputeDistancesParallel is the parallel counterpart of ComputeDistances,
// grounded on spec.md §5's observation that per-row computations are
// independent and embarrassingly parallel.
func (s *ServerState) ComputeDistancesParallel(c, cSquared *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	out := make([]*rlwe.Ciphertext, len(s.rows))
	tasks := make([]func() error, len(s.rows))
	for i := range s.rows {
		i := i
		tasks[i] = func() error {
			d, err := ComputeRowDistance(s.params, s.evk, s.rows[i], c, cSquared, s.gamma)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = d
			return nil
		}
	}
	if err := Parallel(tasks...); err != nil {
		return nil, fmt.Errorf("ppknn: compute distances parallel: %w", err)
	}
	return out, nil
}
