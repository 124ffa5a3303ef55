package pebbledb

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/util"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db/pebble")

// DBOptions configures the pebble engine during initialization
type DBOptions struct {
	NoSync   bool // Do not fsync the WAL on every write (faster, a crash may lose the last writes)
	InMemory bool // Keep all files in memory (used by tests, nothing is persisted)
}

// pebbleImpl implements db.KVDB on top of a pebble LSM tree
type pebbleImpl struct {
	path  string
	db    *pebble.DB
	write *pebble.WriteOptions
	opts  DBOptions
}

// NewPebbleDB opens (or creates) a pebble database in the directory at path.
// If opts is nil, every write is synced to disk.
func NewPebbleDB(path string, opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = &DBOptions{}
	}

	pebbleOpts := &pebble.Options{
		Logger: pebbleLogger{},
	}
	if opts.InMemory {
		pebbleOpts.FS = vfs.NewMem()
	}

	pdb, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}

	write := pebble.Sync
	if opts.NoSync {
		write = pebble.NoSync
	}

	Logger.Infof("opened pebble database at %s (in-memory=%t, sync=%t)", path, opts.InMemory, !opts.NoSync)

	return &pebbleImpl{
		path:  path,
		db:    pdb,
		write: write,
		opts:  *opts,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (p *pebbleImpl) Set(key, value []byte) error {
	return p.db.Set(key, value, p.write)
}

func (p *pebbleImpl) Delete(key []byte) error {
	return p.db.Delete(key, p.write)
}

func (p *pebbleImpl) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// the returned slice is only valid until closer is closed
	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (p *pebbleImpl) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (p *pebbleImpl) ScanPrefix(prefix []byte) db.Iterator {
	it := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: util.PrefixUpperBound(prefix),
	})
	return &pebbleIterator{it: it}
}

func (p *pebbleImpl) GetInfo() db.DatabaseInfo {
	metrics := p.db.Metrics()
	return db.DatabaseInfo{
		SizeBytes: int64(metrics.DiskSpaceUsage()),
		Keys:      -1,
		DbType:    db.ImplPebble,
		Durable:   !p.opts.InMemory,
		Metadata: map[string]interface{}{
			"path":   p.path,
			"levels": len(metrics.Levels),
		},
	}
}

func (p *pebbleImpl) Close() error {
	return p.db.Close()
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

// pebbleIterator adapts a pebble.Iterator to db.Iterator.
// The bounds are set on creation, so every valid position is inside the prefix.
type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
}

func (p *pebbleIterator) Next() bool {
	if !p.started {
		p.started = true
		return p.it.First()
	}
	return p.it.Next()
}

func (p *pebbleIterator) Key() []byte {
	return append([]byte(nil), p.it.Key()...)
}

func (p *pebbleIterator) Value() []byte {
	return append([]byte(nil), p.it.Value()...)
}

func (p *pebbleIterator) Err() error {
	return p.it.Error()
}

func (p *pebbleIterator) Close() error {
	return p.it.Close()
}

// --------------------------------------------------------------------------
// Logger (routes pebble's log output into the hKV loggers)
// --------------------------------------------------------------------------

type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	Logger.Panicf(format, args...)
}
