package model

import "errors"

var (
	// ErrUnknownVariant is returned when a tagged union's discriminant is
	// not one this build understands; forward-compatible decoders should
	// prefer ignoring unknown *fields*, but an unknown *variant* of a
	// closed enum cannot be safely skipped.
	ErrUnknownVariant = errors.New("model: unknown variant discriminant")
)
