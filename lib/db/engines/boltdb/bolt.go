package boltdb

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/boltdb/bolt"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db/bolt")

// bucketName is the single bucket holding the flat keyspace
var bucketName = []byte("hkv")

const defaultOpenTimeout = time.Second

// DBOptions configures the bolt engine during initialization
type DBOptions struct {
	NoSync      bool          // Skip fsync after each commit
	OpenTimeout time.Duration // How long to wait for the file lock (0 = use default: 1 sec)
}

// boltImpl implements db.KVDB on top of a single bolt bucket
type boltImpl struct {
	path string
	db   *bolt.DB
}

// NewBoltDB opens (or creates) a bolt database file at path.
func NewBoltDB(path string, opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = &DBOptions{}
	}
	timeout := opts.OpenTimeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database at %s: %w", path, err)
	}
	bdb.NoSync = opts.NoSync

	// Create the bucket once so that every later transaction can rely on it
	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	Logger.Infof("opened bolt database at %s (sync=%t)", path, !opts.NoSync)

	return &boltImpl{path: path, db: bdb}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (b *boltImpl) Set(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (b *boltImpl) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

func (b *boltImpl) Get(key []byte) (value []byte, loaded bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(bucketName).Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return nil
		}
		// v is only valid for the lifetime of the transaction
		value = append([]byte{}, v...)
		loaded = true
		return nil
	})
	return value, loaded, err
}

func (b *boltImpl) Has(key []byte) (bool, error) {
	_, loaded, err := b.Get(key)
	return loaded, err
}

// ScanPrefix materializes the range inside one read transaction.
// Holding a read transaction open while the same goroutine writes can block bolt's remapping.
func (b *boltImpl) ScanPrefix(prefix []byte) db.Iterator {
	var entries []db.Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			entries = append(entries, db.Entry{
				Key:   append([]byte{}, k...),
				Value: append([]byte{}, v...),
			})
		}
		return nil
	})
	return db.NewSliceIterator(entries, err)
}

func (b *boltImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		Keys:     -1,
		DbType:   db.ImplBolt,
		Durable:  true,
		Metadata: map[string]interface{}{"path": b.path},
	}
	_ = b.db.View(func(tx *bolt.Tx) error {
		info.SizeBytes = tx.Size()
		info.Keys = int64(tx.Bucket(bucketName).Stats().KeyN)
		return nil
	})
	return info
}

func (b *boltImpl) Close() error {
	return b.db.Close()
}
