package kb

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can branch on business failures without
// matching message text.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindPreconditionFailed
	KindStorageIO
	KindInconsistency
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidInput:
		return "InvalidInput"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindStorageIO:
		return "StorageIO"
	case KindInconsistency:
		return "Inconsistency"
	default:
		return "Internal"
	}
}

// Machine-readable error codes.
const (
	CodeDirectoryNotFound   = "DIRECTORY_NOT_FOUND"
	CodeParentNotFound      = "PARENT_NOT_FOUND"
	CodeNameConflict        = "NAME_CONFLICT"
	CodeMoveCycle           = "MOVE_CYCLE"
	CodeHasChildren         = "HAS_CHILDREN"
	CodeRootImmutable       = "ROOT_IMMUTABLE"
	CodeValidation          = "VALIDATION_FAILED"
	CodeEmptyFile           = "EMPTY_FILE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeFileNotFound        = "FILE_NOT_FOUND"
	CodePhysicalFileMissing = "PHYSICAL_FILE_MISSING"
	CodeTreeCorrupt         = "TREE_CORRUPT"
	CodeStorageIO           = "STORAGE_IO"
	CodeInternal            = "INTERNAL"
)

// Error is the structured outcome of a failed operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code, or a bare kind sentinel such
// as ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

// Kind sentinels, for errors.Is(err, kb.ErrNotFound).
var (
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed, Message: "precondition failed"}
	ErrStorageIO          = &Error{Kind: KindStorageIO, Message: "storage i/o failure"}
	ErrInconsistency      = &Error{Kind: KindInconsistency, Message: "inconsistent state"}
)

// Code sentinels.
var (
	ErrDirectoryNotFound   = &Error{Kind: KindNotFound, Code: CodeDirectoryNotFound, Message: "directory not found"}
	ErrParentNotFound      = &Error{Kind: KindNotFound, Code: CodeParentNotFound, Message: "parent directory not found"}
	ErrNameConflict        = &Error{Kind: KindConflict, Code: CodeNameConflict, Message: "a directory with this name already exists"}
	ErrMoveCycle           = &Error{Kind: KindConflict, Code: CodeMoveCycle, Message: "cannot move a directory into itself or its descendants"}
	ErrHasChildren         = &Error{Kind: KindPreconditionFailed, Code: CodeHasChildren, Message: "directory has subdirectories"}
	ErrRootImmutable       = &Error{Kind: KindPreconditionFailed, Code: CodeRootImmutable, Message: "the root directory cannot be changed"}
	ErrEmptyFile           = &Error{Kind: KindInvalidInput, Code: CodeEmptyFile, Message: "file is empty"}
	ErrFileTooLarge        = &Error{Kind: KindInvalidInput, Code: CodeFileTooLarge, Message: "file exceeds the size limit"}
	ErrFileNotFound        = &Error{Kind: KindNotFound, Code: CodeFileNotFound, Message: "file not found"}
	ErrPhysicalFileMissing = &Error{Kind: KindInconsistency, Code: CodePhysicalFileMissing, Message: "stored content is missing"}
)

// ErrDuplicate is wrapped by Database implementations when a write violates a
// uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// ErrBlobNotFound is wrapped by ContentStore implementations when a location
// holds no blob.
var ErrBlobNotFound = errors.New("blob not found")

func newError(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

func validationError(err error) *Error {
	return &Error{Kind: KindInvalidInput, Code: CodeValidation, Message: "invalid input", Err: err}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorageIO, Code: CodeStorageIO, Message: op, Err: err}
}

func inconsistency(format string, args ...any) *Error {
	return &Error{Kind: KindInconsistency, Code: CodeTreeCorrupt, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeInternal
}
