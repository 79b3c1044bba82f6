package refcount

import "github.com/cockroachdb/errors"

var (
	ErrAcquireReleased  = errors.New("acquire on a released referenceable")
	ErrReleasedTooOften = errors.New("referenceable released too often")
)
