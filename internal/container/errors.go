package container

import (
	"fmt"

	"github.com/nconklindev/bulksheet/internal/types"
)

var (
	// ErrOpenSource indicates the source archive could not be opened.
	ErrOpenSource = types.NewKind(types.KindContainerOpenFailed, "cannot open source")
	// ErrSourceInvalid indicates the source is not a readable zip container.
	ErrSourceInvalid = types.NewKind(types.KindContainerOpenFailed, "source is not a valid container")
	// ErrCreateDest indicates the destination could not be created.
	ErrCreateDest = types.NewKind(types.KindContainerWriteFailed, "cannot create destination")
	// ErrWrite indicates a failure while producing or persisting the archive.
	ErrWrite = types.NewKind(types.KindContainerWriteFailed, "write failure")
)

// Error records the operation and path behind a container failure.
type Error struct {
	Op   string
	Path string
	Kind *types.KindError
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind *types.KindError, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}
