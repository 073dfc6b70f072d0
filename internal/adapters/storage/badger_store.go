package storage

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

type Options struct {
	Dir        string
	InMemory   bool
	SyncWrites bool
}

type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	seqMu  sync.Mutex
	mu     sync.RWMutex
	closed bool
}

var _ ports.StoragePort = (*BadgerStore)(nil)

func Open(opts Options, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage")

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true).
			WithMemTableSize(8 << 20)
	} else {
		if opts.Dir == "" {
			return nil, domain.NewStorageError(domain.StorageErrUnavailable, "open", "", errors.New("directory is required"))
		}
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, domain.NewStorageError(domain.StorageErrUnavailable, "open", opts.Dir, err)
		}
		badgerOpts = badger.DefaultOptions(opts.Dir).WithSyncWrites(opts.SyncWrites)
	}
	badgerOpts = badgerOpts.WithLogger(&badgerLogger{logger: logger.With("subsystem", "badger")})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, domain.NewStorageError(domain.StorageErrUnavailable, "open", opts.Dir, err)
	}

	logger.Debug("storage opened", "dir", opts.Dir, "in_memory", opts.InMemory, "sync_writes", opts.SyncWrites)

	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Get(key string) (value []byte, exists bool, err error) {
	if err := s.checkOpen("get", key); err != nil {
		return nil, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		value, exists, err = getFromTxn(txn, key)
		return err
	})
	if err != nil {
		return nil, false, wrapError(domain.StorageErrRead, "get", key, err)
	}
	return value, exists, nil
}

func (s *BadgerStore) Put(key string, value []byte) error {
	if err := s.checkOpen("put", key); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return wrapError(domain.StorageErrWrite, "put", key, err)
	}
	return nil
}

func (s *BadgerStore) Delete(key string) error {
	if err := s.checkOpen("delete", key); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return wrapError(domain.StorageErrWrite, "delete", key, err)
	}
	return nil
}

func (s *BadgerStore) ListByPrefix(prefix string, reverse bool) ([]ports.KeyValue, error) {
	if err := s.checkOpen("list", prefix); err != nil {
		return nil, err
	}

	var results []ports.KeyValue
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		start := []byte(prefix)
		if reverse {
			start = append(start, 0xFF)
		}

		for it.Seek(start); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			results = append(results, ports.KeyValue{
				Key:   string(item.KeyCopy(nil)),
				Value: value,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(domain.StorageErrRead, "list", prefix, err)
	}
	return results, nil
}

func (s *BadgerStore) NextSequence(name string) (int64, error) {
	key := domain.SequenceKey(name)
	if err := s.checkOpen("sequence", key); err != nil {
		return 0, err
	}

	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	var next int64
	err := s.db.Update(func(txn *badger.Txn) error {
		current, exists, err := getFromTxn(txn, key)
		if err != nil {
			return err
		}
		if exists {
			if len(current) != 8 {
				return domain.NewStorageError(domain.StorageErrCorrupted, "sequence", key, errors.New("counter is not 8 bytes"))
			}
			next = int64(binary.BigEndian.Uint64(current))
		}
		next++

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(next))
		return txn.Set([]byte(key), buf)
	})
	if err != nil {
		return 0, wrapError(domain.StorageErrWrite, "sequence", key, err)
	}
	return next, nil
}

func (s *BadgerStore) RunInTransaction(fn func(tx ports.Transaction) error) error {
	if err := s.checkOpen("transaction", ""); err != nil {
		return err
	}

	var fnErr error
	err := s.db.Update(func(txn *badger.Txn) error {
		fnErr = fn(&badgerTxn{txn: txn})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return wrapError(domain.StorageErrWrite, "commit", "", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close storage", "error", err)
		return domain.NewStorageError(domain.StorageErrClosed, "close", "", err)
	}
	return nil
}

func (s *BadgerStore) checkOpen(op, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.NewStorageError(domain.StorageErrClosed, op, key, badger.ErrDBClosed)
	}
	return nil
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(key string) ([]byte, bool, error) {
	value, exists, err := getFromTxn(t.txn, key)
	if err != nil {
		return nil, false, wrapError(domain.StorageErrRead, "get", key, err)
	}
	return value, exists, nil
}

func (t *badgerTxn) Put(key string, value []byte) error {
	if err := t.txn.Set([]byte(key), value); err != nil {
		return wrapError(domain.StorageErrWrite, "put", key, err)
	}
	return nil
}

func (t *badgerTxn) Delete(key string) error {
	if err := t.txn.Delete([]byte(key)); err != nil {
		return wrapError(domain.StorageErrWrite, "delete", key, err)
	}
	return nil
}

func getFromTxn(txn *badger.Txn, key string) ([]byte, bool, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func wrapError(errType domain.StorageErrorType, op, key string, err error) error {
	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	if errors.Is(err, badger.ErrDBClosed) {
		errType = domain.StorageErrClosed
	}
	return domain.NewStorageError(errType, op, key, err)
}
