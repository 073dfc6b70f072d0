package ports

type StoragePort interface {
	Get(key string) (value []byte, exists bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error

	// ListByPrefix returns entries in key order, or reverse key order when
	// reverse is set.
	ListByPrefix(prefix string, reverse bool) ([]KeyValue, error)

	// NextSequence returns the next value of a named monotonic counter. Values
	// start at 1 and are never reused.
	NextSequence(name string) (int64, error)

	RunInTransaction(fn func(tx Transaction) error) error
	Close() error
}

type Transaction interface {
	Get(key string) (value []byte, exists bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
}

type KeyValue struct {
	Key   string
	Value []byte
}
