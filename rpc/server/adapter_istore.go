package server

import (
	"fmt"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewIStoreServerAdapter returns an adapter that executes requests with Dispatch
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.CommandRequest, s store.IStore) *common.CommandResponse {
	return Dispatch(req, s)
}

// Dispatch executes a single request against a store and returns exactly one response.
// It holds no state, all synchronization is done by the store.
// A panic inside the store is recovered and reported as an internal error.
func Dispatch(req *common.CommandRequest, s store.IStore) (resp *common.CommandResponse) {
	if req == nil {
		return common.NewErrorResponse(store.NewInvalidCommandError("empty request"))
	}
	if s == nil {
		return common.NewErrorResponse(store.NewInternalError("store is nil"))
	}

	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Recovered from panic while handling %s for table %q: %v", req.MsgType, req.Table, r)
			resp = common.NewErrorResponse(store.NewInternalError(fmt.Sprint(r)))
		}
	}()

	switch req.MsgType {
	case common.MsgTHget:
		val, ok, err := s.Get(req.Table, req.Key)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		if !ok {
			return common.NewErrorResponse(store.NewNotFoundError(req.Table, req.Key))
		}
		return common.NewValueResponse(val)

	case common.MsgTHgetall:
		pairs, err := s.GetAll(req.Table)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return common.NewPairsResponse(pairs)

	case common.MsgTHset:
		if req.Pair == nil {
			return common.NewErrorResponse(store.NewInvalidCommandError("hset without a key-value pair"))
		}
		if req.Pair.Value.IsNone() {
			return common.NewErrorResponse(store.NewInvalidCommandError("hset without a value"))
		}
		prev, loaded, err := s.Set(req.Table, req.Pair.Key, req.Pair.Value)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return previousValueResponse(prev, loaded)

	case common.MsgTHexist:
		ok, err := s.Contains(req.Table, req.Key)
		if err != nil {
			// A failed lookup is reported as a miss, only invalid input keeps its own status
			if e := store.AsError(err); e.Code == store.RetCInvalidCommand {
				return common.NewErrorResponse(e)
			}
			Logger.Warningf("Existence check for table %q, key %q failed: %v", req.Table, req.Key, err)
			return common.NewErrorResponse(store.NewNotFoundError(req.Table, req.Key))
		}
		return common.NewValueResponse(store.BoolValue(ok))

	case common.MsgTHdel:
		prev, loaded, err := s.Del(req.Table, req.Key)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return previousValueResponse(prev, loaded)

	default:
		return common.NewErrorResponse(
			store.NewInvalidCommandError(fmt.Sprintf("unsupported message type %d", uint32(req.MsgType))),
		)
	}
}

// previousValueResponse answers hset and hdel. Only a loaded value is reported, absent keys yield none.
func previousValueResponse(prev store.Value, loaded bool) *common.CommandResponse {
	if !loaded {
		prev = store.Value{}
	}
	return common.NewValueResponse(prev)
}
