// Package bdgr implements a persistent inode store on badger.
//
// Entries are stored as JSON documents under the key "entry:<path>".
package bdgr

import (
	"context"
	"os"
	"time"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/inodes/status"
	"go.uber.org/zap"
)

var (
	_ inodes.Store = &Store{}

	json = jsoniter.ConfigFastest

	entryPrefix = [6]byte{'e', 'n', 't', 'r', 'y', ':'}
)

func entryKey(p string) []byte {
	return append(entryPrefix[:], p...)
}

// Option configures the badger store
type Option func(*Store)

// Logger specifies a logger for this store
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// Clock sets the time source used to stamp new entries
func Clock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps entries in a badger database
type Store struct {
	db  *badger.DB
	l   *zap.Logger
	now func() time.Time
}

// New opens (or creates) a store in a directory
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		l:   dlogger.MustGetLogger(dlogger.LogLevelInfo),
		now: time.Now,
	}
	for _, apply := range opts {
		apply(s)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, status.ErrStore.Wrap(err)
	}
	options := badger.DefaultOptions(dir).WithLogger(badgerLogger{s: s.l.Sugar()})
	db, err := badger.Open(options)
	if err != nil {
		return nil, status.ErrStore.Wrap(err)
	}
	s.db = db

	err = s.db.Update(func(txn *badger.Txn) error {
		t := tx{txn: txn}
		_, found, err := t.Get(inodes.Root)
		if err != nil || found {
			return err
		}
		return t.Put(inodes.RootEntry(s.now()))
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.l.Debug("inode store ready", zap.String("dir", dir))
	return s, nil
}

type tx struct {
	txn *badger.Txn
}

func (t tx) Get(p string) (inodes.Entry, bool, error) {
	var e inodes.Entry
	item, err := t.txn.Get(entryKey(p))
	if err == badger.ErrKeyNotFound {
		return e, false, nil
	}
	if err != nil {
		return e, false, status.ErrStore.Wrap(err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return e, false, status.ErrStore.Wrap(err)
	}
	if err = json.Unmarshal(value, &e); err != nil {
		return e, false, status.ErrStore.Wrap(err)
	}
	return e, true, nil
}

func (t tx) Put(e inodes.Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return status.ErrStore.Wrap(err)
	}
	if err = t.txn.Set(entryKey(e.Path), value); err != nil {
		return status.ErrStore.Wrap(err)
	}
	return nil
}

func (t tx) Delete(p string) error {
	if err := t.txn.Delete(entryKey(p)); err != nil {
		return status.ErrStore.Wrap(err)
	}
	return nil
}

func (t tx) Scan(dir string, fn func(inodes.Entry) bool) error {
	prefix := entryKey(dir + "/")
	if dir == inodes.Root {
		prefix = entryKey(inodes.Root)
	}

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		p := string(item.Key()[len(entryPrefix):])
		if !inodes.IsBelow(p, dir) {
			continue
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return status.ErrStore.Wrap(err)
		}
		var e inodes.Entry
		if err = json.Unmarshal(value, &e); err != nil {
			return status.ErrStore.Wrap(err)
		}
		if !fn(e) {
			return nil
		}
	}
	return nil
}

func (s *Store) read(fn func(tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(tx{txn: txn})
	})
}

func (s *Store) write(fn func(tx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(tx{txn: txn})
	})
}

// Resolve an entry
func (s *Store) Resolve(_ context.Context, p string) (e inodes.Entry, err error) {
	err = s.read(func(t tx) error {
		e, err = inodes.Resolve(t, p)
		return err
	})
	return
}

// Create a file entry
func (s *Store) Create(_ context.Context, p string, mode os.FileMode) (e inodes.Entry, err error) {
	err = s.write(func(t tx) error {
		e, err = inodes.Create(t, p, mode, s.now())
		return err
	})
	return
}

// Mkdir creates a directory entry
func (s *Store) Mkdir(_ context.Context, p string, mode os.FileMode) (e inodes.Entry, err error) {
	err = s.write(func(t tx) error {
		e, err = inodes.Mkdir(t, p, mode, s.now())
		return err
	})
	return
}

// Update an entry
func (s *Store) Update(_ context.Context, p string, u inodes.Update) error {
	return s.write(func(t tx) error {
		return inodes.Apply(t, p, u)
	})
}

// List the children of a directory
func (s *Store) List(_ context.Context, dir string) (entries []inodes.Entry, err error) {
	err = s.read(func(t tx) error {
		entries, err = inodes.List(t, dir)
		return err
	})
	return
}

// Remove a file or an empty directory
func (s *Store) Remove(_ context.Context, p string) error {
	return s.write(func(t tx) error {
		return inodes.Remove(t, p)
	})
}

// Rename an entry
func (s *Store) Rename(_ context.Context, from, to string) error {
	return s.write(func(t tx) error {
		return inodes.Rename(t, from, to)
	})
}

// Close the database
func (s *Store) Close() error {
	return s.db.Close()
}
