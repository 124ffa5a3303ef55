package server

import (
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a request and a store as parameters and always returns a response.
	// Failures are reported through the status and message of the response.
	Handle(req *common.CommandRequest, store store.IStore) (resp *common.CommandResponse)
}
