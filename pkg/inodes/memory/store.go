// Package memory implements an inode store held in memory, ordered by path.
package memory

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/tidwall/btree"
)

var _ inodes.Store = &Store{}

// Option configures the memory store
type Option func(*Store)

// Clock sets the time source used to stamp new entries
func Clock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps entries in a b-tree keyed by path
type Store struct {
	mx   sync.RWMutex
	tree *btree.Map[string, inodes.Entry]
	now  func() time.Time
}

// New builds an empty store, holding only the root directory
func New(opts ...Option) *Store {
	s := &Store{
		tree: btree.NewMap[string, inodes.Entry](0),
		now:  time.Now,
	}
	for _, apply := range opts {
		apply(s)
	}
	s.tree.Set(inodes.Root, inodes.RootEntry(s.now()))
	return s
}

type tx struct {
	tree *btree.Map[string, inodes.Entry]
}

func (t tx) Get(p string) (inodes.Entry, bool, error) {
	e, ok := t.tree.Get(p)
	return e, ok, nil
}

func (t tx) Put(e inodes.Entry) error {
	t.tree.Set(e.Path, e)
	return nil
}

func (t tx) Delete(p string) error {
	t.tree.Delete(p)
	return nil
}

func (t tx) Scan(dir string, fn func(inodes.Entry) bool) error {
	pivot := dir + "/"
	if dir == inodes.Root {
		pivot = inodes.Root
	}
	t.tree.Ascend(pivot, func(p string, e inodes.Entry) bool {
		if !inodes.IsBelow(p, dir) {
			return p == inodes.Root
		}
		return fn(e)
	})
	return nil
}

func (s *Store) read(fn func(tx) error) error {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return fn(tx{tree: s.tree})
}

func (s *Store) write(fn func(tx) error) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return fn(tx{tree: s.tree})
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

// Len returns the number of entries, including the root
func (s *Store) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.tree.Len()
}

// Close drops all entries
func (s *Store) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.tree.Clear()
	return nil
}
