package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseErrorKeepsServerError(t *testing.T) {
	serverErrors := []*store.Error{
		store.NewNotFoundError("users", "alice"),
		store.NewInvalidCommandError("hset without a value"),
		store.NewConvertError("string", "integer"),
		store.NewStorageError("set", "users", "alice", errors.New("disk full")),
		store.NewEncodeError(errors.New("boom")),
		store.NewDecodeError(errors.New("truncated")),
		store.NewInternalError("backend exploded"),
	}

	for _, want := range serverErrors {
		t.Run(want.Code.String(), func(t *testing.T) {
			resp := common.NewErrorResponse(want)
			var err error = &ResponseError{Status: resp.Status, Message: resp.Message}

			got := store.AsError(err)
			require.NotNil(t, got)
			assert.Equal(t, *want, *got)
			assert.Equal(t, want.Error(), got.Error())
			assert.Equal(t, want.Code, err.(*ResponseError).Code())
		})
	}
}

func TestResponseErrorForeignMessage(t *testing.T) {
	err := &ResponseError{Status: http.StatusServiceUnavailable, Message: "proxy down"}
	got := store.AsError(err)
	assert.Equal(t, store.RetCInternal, got.Code)
	assert.Equal(t, "proxy down", got.Msg)

	// a message that does not match its status is not trusted
	err = &ResponseError{Status: http.StatusBadRequest, Message: store.NewInternalError("x").Error()}
	assert.Equal(t, store.RetCInvalidCommand, err.Code())
	assert.True(t, errors.Is(err, store.ErrInvalidCommand))
}
