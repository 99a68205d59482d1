package physics

import "errors"

var (
	ErrInvalidConfig   = errors.New("physics: invalid world configuration")
	ErrInvalidTimestep = errors.New("physics: timestep must be positive")
	ErrDegenerateMass  = errors.New("physics: body has no positive mass")
	ErrDuplicateBody   = errors.New("physics: body already added")
	ErrForeignBody     = errors.New("physics: body was created by another world")
)
