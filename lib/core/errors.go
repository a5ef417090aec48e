package core

import "fmt"

// --------------------------------------------------------------------------
// DDL error codes
// --------------------------------------------------------------------------

// DdlCode is the machine-readable class of a DDL failure. Codes are stable
// and cross the wire unchanged.
type DdlCode uint8

const (
	DdlCStillInUse         DdlCode = iota // 0: the object still has live handles
	DdlCObjectNotFound                    // 1: no object under that identifier
	DdlCProtectedObject                   // 2: the object is not user-removable
	DdlCAlreadyExists                     // 3: an object under that identifier exists
	DdlCDefaultNotFound                   // 4: the default object is not set
	DdlCWrongModel                        // 5: operation does not fit the data model
	DdlCNotReady                          // 6: the target object is not ready
	DdlCTransactionFailure                // 7: a multi-step DDL sequence failed
)

// String returns the symbolic name of the code.
func (c DdlCode) String() string {
	switch c {
	case DdlCStillInUse:
		return "StillInUse"
	case DdlCObjectNotFound:
		return "ObjectNotFound"
	case DdlCProtectedObject:
		return "ProtectedObject"
	case DdlCAlreadyExists:
		return "AlreadyExists"
	case DdlCDefaultNotFound:
		return "DefaultNotFound"
	case DdlCWrongModel:
		return "WrongModel"
	case DdlCNotReady:
		return "NotReady"
	case DdlCTransactionFailure:
		return "DdlTransactionFailure"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// DDL error type
// --------------------------------------------------------------------------

// DdlError is a failure of a container create/drop/access operation. It
// wraps a DdlCode and a message. Two DdlErrors match under errors.Is when
// their codes match, so callers compare against the predeclared sentinel
// values below regardless of which layer produced the error.
type DdlError struct {
	Code DdlCode // the failure class
	Msg  string  // the human-readable message
}

// Error implements the error interface.
func (e *DdlError) Error() string {
	return fmt.Sprintf("DDLError (code %s): %s", e.Code, e.Msg)
}

// Is matches any DdlError carrying the same code.
func (e *DdlError) Is(target error) bool {
	t, ok := target.(*DdlError)
	return ok && t.Code == e.Code
}

// NewDdlError creates a DdlError with the given code and message.
func NewDdlError(code DdlCode, msg string) *DdlError {
	return &DdlError{Code: code, Msg: msg}
}

// Sentinel instances for the whole taxonomy. The hierarchy operations in
// this package produce only the first three; the rest belong to the
// higher-level DDL layers (statement execution, restore) that sequence
// these primitives.
var (
	ErrStillInUse         = NewDdlError(DdlCStillInUse, "object is still in use")
	ErrObjectNotFound     = NewDdlError(DdlCObjectNotFound, "object not found")
	ErrProtectedObject    = NewDdlError(DdlCProtectedObject, "object is protected")
	ErrAlreadyExists      = NewDdlError(DdlCAlreadyExists, "object already exists")
	ErrDefaultNotFound    = NewDdlError(DdlCDefaultNotFound, "default object not set")
	ErrWrongModel         = NewDdlError(DdlCWrongModel, "operation not valid for this data model")
	ErrNotReady           = NewDdlError(DdlCNotReady, "object is not ready")
	ErrTransactionFailure = NewDdlError(DdlCTransactionFailure, "ddl transaction failed")
)
