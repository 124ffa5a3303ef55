package server

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/engines/boltdb"
	"github.com/ValentinKolb/hKV/lib/db/engines/btreedb"
	"github.com/ValentinKolb/hKV/lib/db/engines/pebbledb"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/lstore"
	"github.com/ValentinKolb/hKV/lib/store/mstore"
	"github.com/ValentinKolb/hKV/lib/store/sstore"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/gofrs/flock"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc/server")

// lockFileName is the name of the lock file inside the data directory
const lockFileName = "hkv.lock"

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// RPCServer routes serialized requests from a transport to the shard stores
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	mu       sync.Mutex
	lock     *flock.Flock
	initDone bool
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// Init creates the stores of all configured shards and registers the transport handler.
// Serve calls Init, it only needs to be called directly to use Handle without a transport.
func (s *RPCServer) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initDone {
		return nil
	}
	if len(s.config.Shards) == 0 {
		return errors.New("no shards configured")
	}

	// Persistent shards share the data directory, which must not be used by a second server
	if s.config.HasPersistentShard() {
		if err := s.lockDataDir(); err != nil {
			return err
		}
	}

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			s.closeShards()
			return fmt.Errorf("duplicate shard id %d", shardConfig.ShardID)
		}

		st, err := s.createStore(shardConfig)
		if err != nil {
			s.closeShards()
			return fmt.Errorf("failed to create shard %d: %w", shardConfig.ShardID, err)
		}

		if s.config.Metrics {
			st = mstore.NewMeteredStore(st, strconv.FormatUint(shardConfig.ShardID, 10))
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   st,
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created %s store for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	Logger.Infof("hKV setup completed successfully")

	// Configure the transport layer
	if s.transport != nil {
		s.transport.RegisterHandler(s.Handle)
	}
	s.initDone = true

	return nil
}

// Serve starts the RPC server
// This function will also initialize the shards and then block in the transport layer
func (s *RPCServer) Serve() error {
	if s.transport == nil {
		return errors.New("no transport configured")
	}
	if err := s.Init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and closes all stores
func (s *RPCServer) Close() error {
	var errs []error
	if s.transport != nil {
		errs = append(errs, s.transport.Close())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	errs = append(errs, s.closeShards())
	s.initDone = false

	return errors.Join(errs...)
}

// Handle decodes a request for a shard, dispatches it and returns the encoded response.
// It is the handler registered at the transport.
func (s *RPCServer) Handle(shardId uint64, req []byte) []byte {
	var resp *common.CommandResponse

	if shard, ok := s.shards.Load(shardId); !ok {
		// Case shard does not exist -> error
		resp = common.NewErrorResponse(store.NewInvalidCommandError(fmt.Sprintf("shard %d not found", shardId)))
	} else {
		var msg common.CommandRequest
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			resp = common.NewErrorResponse(store.NewInvalidCommandError(fmt.Sprintf("failed to deserialize request: %v", err)))
		} else {
			// Let the adapter handle the request
			resp = shard.Adapter.Handle(&msg, shard.Store)
		}
	}

	// Return result
	val, err := s.serializer.Serialize(resp)
	if err != nil {
		Logger.Errorf("Failed to serialize response for shard %d: %v", shardId, err)
		val, err = s.serializer.Serialize(common.NewErrorResponse(store.NewEncodeError(err)))
		if err != nil {
			Logger.Errorf("Failed to serialize error response for shard %d: %v", shardId, err)
			return nil
		}
	}
	return val
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// createStore creates the store of a shard according to its type
func (s *RPCServer) createStore(shardConfig common.ServerShard) (store.IStore, error) {
	switch shardConfig.Type {
	case common.ShardTypeMemory:
		return lstore.NewLocalStore(), nil

	case common.ShardTypeBTree:
		return sstore.NewSortedStore(btreedb.NewBTreeDB()), nil

	case common.ShardTypePebble:
		dir := s.config.ShardDir(shardConfig.ShardID)
		return sstore.NewSortedStoreFromFactory(func() (db.KVDB, error) {
			return pebbledb.NewPebbleDB(dir, &pebbledb.DBOptions{NoSync: s.config.NoSync})
		})

	case common.ShardTypeBolt:
		dir := s.config.ShardDir(shardConfig.ShardID)
		return sstore.NewSortedStoreFromFactory(func() (db.KVDB, error) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			return boltdb.NewBoltDB(filepath.Join(dir, "hkv.db"), &boltdb.DBOptions{NoSync: s.config.NoSync})
		})

	default:
		return nil, fmt.Errorf("invalid shard type: %s", shardConfig.Type)
	}
}

// lockDataDir creates the data directory and takes an exclusive lock on it
func (s *RPCServer) lockDataDir() error {
	if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(s.config.DataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock data directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("data directory %s is used by another server", s.config.DataDir)
	}

	s.lock = lock
	return nil
}

// closeShards closes all stores and releases the data directory lock
func (s *RPCServer) closeShards() error {
	var errs []error
	s.shards.Range(func(id uint64, shard serverShard) bool {
		if err := shard.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close shard %d: %w", id, err))
		}
		return true
	})
	s.shards.Clear()

	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
		s.lock = nil
	}
	return errors.Join(errs...)
}
