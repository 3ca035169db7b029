package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath indicates a path that cannot be normalized or is not allowed for the operation.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathConflict indicates the path is occupied by a node of the wrong kind.
	ErrPathConflict = errors.New("path conflict")

	// ErrNotFound indicates a missing node, or a precondition on it that does not hold.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange indicates a line number or range outside the file.
	ErrOutOfRange = errors.New("out of range")

	// ErrCorruptState indicates a stored snapshot that cannot be rebuilt into a tree.
	ErrCorruptState = errors.New("corrupt state")
)

// Operation names used in Error.Op.
const (
	OpNormalize   = "normalize"
	OpCreate      = "create"
	OpMkdir       = "mkdir"
	OpRead        = "read"
	OpReplace     = "replace"
	OpInsert      = "insert"
	OpDelete      = "delete"
	OpRename      = "rename"
	OpList        = "list"
	OpStat        = "stat"
	OpDeserialize = "deserialize"
)

// Error wraps a tree error with the operation and path involved.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

// detail attaches a message to a sentinel while keeping it matchable with errors.Is.
func detail(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Code returns the taxonomy name of a tree error, or "" if err is not one.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPath):
		return "InvalidPath"
	case errors.Is(err, ErrPathConflict):
		return "PathConflict"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrCorruptState):
		return "CorruptState"
	default:
		return ""
	}
}
