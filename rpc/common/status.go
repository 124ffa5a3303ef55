package common

import (
	"net/http"

	"github.com/ValentinKolb/hKV/lib/store"
)

// --------------------------------------------------------------------------
// Response Factory Functions
// --------------------------------------------------------------------------

// NewValueResponse creates a successful response carrying a single value
func NewValueResponse(value store.Value) *CommandResponse {
	return &CommandResponse{
		Status: http.StatusOK,
		Values: []store.Value{value},
	}
}

// NewPairsResponse creates a successful response carrying the pairs of a table
func NewPairsResponse(pairs []store.Kvpair) *CommandResponse {
	if pairs == nil {
		pairs = []store.Kvpair{}
	}
	return &CommandResponse{
		Status: http.StatusOK,
		Pairs:  pairs,
	}
}

// NewErrorResponse creates a response for err. The status is derived from the
// error code, errors that are not a *store.Error are reported as internal errors.
func NewErrorResponse(err error) *CommandResponse {
	e := store.AsError(err)
	if e == nil {
		e = store.NewInternalError("missing error")
	}
	return &CommandResponse{
		Status:  StatusForCode(e.Code),
		Message: e.Error(),
	}
}

// StatusForCode maps a store return code to the response status
func StatusForCode(code store.RetCode) uint32 {
	switch code {
	case store.RetCSuccess:
		return http.StatusOK
	case store.RetCNotFound:
		return http.StatusNotFound
	case store.RetCInvalidCommand:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
