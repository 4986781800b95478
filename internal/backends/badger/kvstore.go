package badger

import (
	"context"
	"errors"

	"dappdir/internal/types"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

const (
	valueNamespace = "v/"
	setNamespace   = "s/"
	setSeparator   = "\x00"
)

// KVStore implements ports.KVStore on an embedded BadgerDB.
// Values live under "v/<key>"; every set member is its own empty entry under "s/<setKey>\x00<member>",
// so SetAdd and SetRemove touch one key each and SetMembers is a prefix scan.
type KVStore struct {
	db     *badger.DB
	prefix string
	log    logrus.FieldLogger
}

// Open opens (or creates) the database at path.
func Open(path, prefix string, logger logrus.FieldLogger) (*KVStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "open badger db at %s", path)
	}
	logger.WithField("path", path).Info("BadgerDB opened")
	return &KVStore{db: db, prefix: prefix, log: logger.WithField("component", "kvstore")}, nil
}

func (s *KVStore) valueKey(key string) []byte {
	return []byte(valueNamespace + s.prefix + key)
}

func (s *KVStore) setPrefix(setKey string) []byte {
	return []byte(setNamespace + s.prefix + setKey + setSeparator)
}

func (s *KVStore) memberKey(setKey, member string) []byte {
	return append(s.setPrefix(setKey), member...)
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.valueKey(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Err(types.ErrDataStoreAccess, err, "badger get %s", key)
	}
	return out, true, nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(s.valueKey(key), value))
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "badger set %s", key)
	}
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.valueKey(key))
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "badger delete %s", key)
	}
	return nil
}

func (s *KVStore) SetAdd(_ context.Context, setKey, member string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.memberKey(setKey, member), nil)
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "badger add %s to %s", member, setKey)
	}
	return nil
}

func (s *KVStore) SetRemove(_ context.Context, setKey, member string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.memberKey(setKey, member))
	})
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "badger remove %s from %s", member, setKey)
	}
	return nil
}

func (s *KVStore) SetMembers(_ context.Context, setKey string) ([]string, error) {
	prefix := s.setPrefix(setKey)
	members := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			k := it.Item().Key()
			members = append(members, string(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, types.Err(types.ErrDataStoreAccess, err, "badger scan %s", setKey)
	}
	return members, nil
}

func (s *KVStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
