package contract

import "errors"

var (
	ErrBackend     = errors.New("backend call failed")
	ErrValidation  = errors.New("validation failed")
	ErrAssembly    = errors.New("assembly incomplete")
	ErrUnknownKind = errors.New("unknown component kind")
)
