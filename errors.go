package ppknn

import "errors"

// Configuration errors, returned (never panicked) from SetupWithData,
// ServerState.LoadRows, ClientState.MakeQuery and Load (spec.md §7).
var (
	ErrEmptyModel        = errors.New("ppknn: model has no rows")
	ErrRowTooLong        = errors.New("ppknn: model row longer than the blind-rotation ring degree")
	ErrParameterMismatch = errors.New("ppknn: persisted parameters do not match the supplied parameters")
)
