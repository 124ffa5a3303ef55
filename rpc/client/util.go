package client

import (
	"fmt"
	"net/http"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// ResponseError is returned for every response with a non 2xx status
type ResponseError struct {
	Status  uint32
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("server responded with %d: %s", e.Status, e.Message)
}

// Code returns the store return code of the error
func (e *ResponseError) Code() store.RetCode {
	return e.storeError().Code
}

// Unwrap exposes the error as a *store.Error, so that store.AsError and
// errors.Is with the store sentinels work on client errors
func (e *ResponseError) Unwrap() error {
	return e.storeError()
}

// storeError rebuilds the server side error from the message. Messages that were
// not rendered by a *store.Error keep their text and get the code of the status.
func (e *ResponseError) storeError() *store.Error {
	if parsed := store.ParseError(e.Message); parsed != nil && common.StatusForCode(parsed.Code) == e.Status {
		return parsed
	}
	return store.NewError(codeForStatus(e.Status), e.Message)
}

// codeForStatus maps a status back to the closest store return code
func codeForStatus(status uint32) store.RetCode {
	switch status {
	case http.StatusOK:
		return store.RetCSuccess
	case http.StatusNotFound:
		return store.RetCNotFound
	case http.StatusBadRequest:
		return store.RetCInvalidCommand
	default:
		return store.RetCInternal
	}
}

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest sends a request and returns the decoded response.
// Transport and serialization failures are returned as errors,
// a decoded response is returned as it is, whatever its status.
func (a *rpcClientAdapter) invokeRPCRequest(req *common.CommandRequest) (*common.CommandResponse, error) {
	// Serialize the request
	reqBytes, err := a.serializer.Serialize(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", req.MsgType, err)
	}

	// Send the request
	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.MsgType, err)
	}

	// Deserialize the response
	resp := &common.CommandResponse{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s response: %w", req.MsgType, err)
	}

	return resp, nil
}

// invokeChecked is invokeRPCRequest that turns non 2xx responses into a *ResponseError
func (a *rpcClientAdapter) invokeChecked(req *common.CommandRequest) (*common.CommandResponse, error) {
	resp, err := a.invokeRPCRequest(req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &ResponseError{Status: resp.Status, Message: resp.Message}
	}
	return resp, nil
}

// singleValue returns the only value of a response
func singleValue(req *common.CommandRequest, resp *common.CommandResponse) (store.Value, error) {
	if len(resp.Values) != 1 {
		return store.Value{}, fmt.Errorf("unexpected %s response: expected 1 value, got %d", req.MsgType, len(resp.Values))
	}
	return resp.Values[0], nil
}
