package smartptr

import "github.com/cockroachdb/errors"

var (
	ErrDeletedWhileOwned = errors.New("managed object deleted directly while shared owners exist")
	ErrReleasedTooOften  = errors.New("shared pointer released too often")
	ErrAlreadyInited     = errors.New("shared from this already inited")
	ErrNilObject         = errors.New("nil object")
	ErrInvalidNamespace  = errors.New("invalid metrics namespace")
)
