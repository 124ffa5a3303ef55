package store

import (
	"errors"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess        RetCode = iota // 0: Command executed successfully.
	RetCNotFound                      // 1: The requested key does not exist.
	RetCInvalidCommand                // 2: The command is malformed or not supported.
	RetCConvertError                  // 3: A value has the wrong type.
	RetCStorageError                  // 4: The storage backend failed.
	RetCEncodeError                   // 5: A value could not be encoded.
	RetCDecodeError                   // 6: A value could not be decoded.
	RetCInternal                      // 7: An unexpected internal failure.
)

// String returns the name of the return code.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidCommand:
		return "InvalidCommand"
	case RetCConvertError:
		return "ConvertError"
	case RetCStorageError:
		return "StorageError"
	case RetCEncodeError:
		return "EncodeError"
	case RetCDecodeError:
		return "DecodeError"
	case RetCInternal:
		return "Internal"
	default:
		return fmt.Sprintf("RetCode(%d)", uint64(c))
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the error type of every store operation. Code selects the kind,
// the remaining fields carry the context of that kind (unused fields stay empty).
// Causes from backends are flattened to text, so no backend type crosses this boundary.
type Error struct {
	Code  RetCode // The return code
	Table string  // Table involved (NotFound, StorageError)
	Key   string  // Key involved (NotFound, StorageError)
	Op    string  // Operation that failed (StorageError)
	From  string  // Source type (ConvertError)
	To    string  // Target type (ConvertError)
	Msg   string  // Detail or cause text
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case RetCNotFound:
		return fmt.Sprintf("Not found for table:%s, key:%s", e.Table, e.Key)
	case RetCInvalidCommand:
		return fmt.Sprintf("Command is invalid: `%s`", e.Msg)
	case RetCConvertError:
		return fmt.Sprintf("Cannot convert value %s to %s", e.From, e.To)
	case RetCStorageError:
		return fmt.Sprintf("Cannot process command %s with table: %s, key: %s. Error: %s", e.Op, e.Table, e.Key, e.Msg)
	case RetCEncodeError:
		return fmt.Sprintf("Failed to encode value: %s", e.Msg)
	case RetCDecodeError:
		return fmt.Sprintf("Failed to decode value: %s", e.Msg)
	default:
		return fmt.Sprintf("Internal error: %s", e.Msg)
	}
}

// Is makes errors.Is match any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Msg == "" && t.Table == "" && t.Key == ""
}

// Sentinels for errors.Is checks on the code alone.
var (
	ErrNotFound       = &Error{Code: RetCNotFound}
	ErrInvalidCommand = &Error{Code: RetCInvalidCommand}
	ErrStorage        = &Error{Code: RetCStorageError}
)

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func NewNotFoundError(table, key string) *Error {
	return &Error{Code: RetCNotFound, Table: table, Key: key}
}

func NewInvalidCommandError(detail string) *Error {
	return &Error{Code: RetCInvalidCommand, Msg: detail}
}

func NewConvertError(from, to string) *Error {
	return &Error{Code: RetCConvertError, From: from, To: to}
}

// NewStorageError wraps a backend failure. The cause is flattened to its text.
func NewStorageError(op, table, key string, cause error) *Error {
	return &Error{Code: RetCStorageError, Op: op, Table: table, Key: key, Msg: causeText(cause)}
}

func NewEncodeError(cause error) *Error {
	return &Error{Code: RetCEncodeError, Msg: causeText(cause)}
}

func NewDecodeError(cause error) *Error {
	return &Error{Code: RetCDecodeError, Msg: causeText(cause)}
}

func NewInternalError(detail string) *Error {
	return &Error{Code: RetCInternal, Msg: detail}
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// AsError returns the *Error in the chain of err or wraps a foreign error as RetCInternal.
// A nil err returns nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError(err.Error())
}

// ParseError rebuilds an Error from the text produced by Error.Error, e.g. the message
// of an error response. It returns nil if msg was not rendered by an Error.
func ParseError(msg string) *Error {
	if rest, ok := strings.CutPrefix(msg, "Not found for table:"); ok {
		// table names never contain ':'
		if table, key, found := strings.Cut(rest, ", key:"); found {
			return &Error{Code: RetCNotFound, Table: table, Key: key}
		}
		return nil
	}
	if rest, ok := strings.CutPrefix(msg, "Command is invalid: `"); ok {
		if detail, found := strings.CutSuffix(rest, "`"); found {
			return &Error{Code: RetCInvalidCommand, Msg: detail}
		}
		return nil
	}
	if rest, ok := strings.CutPrefix(msg, "Cannot convert value "); ok {
		if i := strings.LastIndex(rest, " to "); i >= 0 {
			return &Error{Code: RetCConvertError, From: rest[:i], To: rest[i+len(" to "):]}
		}
		return nil
	}
	if rest, ok := strings.CutPrefix(msg, "Cannot process command "); ok {
		op, rest, found := strings.Cut(rest, " with table: ")
		if !found {
			return nil
		}
		table, rest, found := strings.Cut(rest, ", key: ")
		if !found {
			return nil
		}
		key, cause, found := strings.Cut(rest, ". Error: ")
		if !found {
			return nil
		}
		return &Error{Code: RetCStorageError, Op: op, Table: table, Key: key, Msg: cause}
	}
	if rest, ok := strings.CutPrefix(msg, "Failed to encode value: "); ok {
		return &Error{Code: RetCEncodeError, Msg: rest}
	}
	if rest, ok := strings.CutPrefix(msg, "Failed to decode value: "); ok {
		return &Error{Code: RetCDecodeError, Msg: rest}
	}
	if rest, ok := strings.CutPrefix(msg, "Internal error: "); ok {
		return &Error{Code: RetCInternal, Msg: rest}
	}
	return nil
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == RetCNotFound
}
