package processor

import "errors"

var (
	ErrNotImplemented = errors.New("request code not implemented")
	ErrNilRef         = errors.New("nil client ref")
	ErrNilRegistry    = errors.New("nil request future registry")
)
