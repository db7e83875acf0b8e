package flatten

import (
	"errors"
	"io/fs"
	"syscall"
)

var (
	// ErrInvalidDestination is returned when the flatten root names a regular file.
	ErrInvalidDestination = errors.New("path is not a directory")

	// ErrCollision is returned by the error collision policy when the
	// destination name is already taken.
	ErrCollision = errors.New("destination already exists")
)

// Kind classifies a flatten failure.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidDestination
	KindNotFound
	KindPermissionDenied
	KindCrossDevice
	KindCollision
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidDestination:
		return "invalid destination"
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "permission denied"
	case KindCrossDevice:
		return "cross-device move"
	case KindCollision:
		return "name collision"
	default:
		return "i/o failure"
	}
}

// Classify maps err onto a Kind. Wrapped errors are unwrapped.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidDestination):
		return KindInvalidDestination
	case errors.Is(err, ErrCollision):
		return KindCollision
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, syscall.EXDEV):
		return KindCrossDevice
	default:
		return KindOther
	}
}
