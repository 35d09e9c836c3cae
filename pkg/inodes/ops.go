package inodes

import (
	"os"
	"strings"
	"time"

	"github.com/oneconcern/casfs/pkg/inodes/status"
)

// Tx gives access to entries keyed by path, within one atomic operation.
//
// Store implementations provide a Tx and get the semantics of the file system
// operations from the functions of this package.
type Tx interface {
	Get(p string) (Entry, bool, error)
	Put(e Entry) error
	Delete(p string) error

	// Scan calls fn for every entry strictly below dir, in path order, until fn returns false
	Scan(dir string, fn func(Entry) bool) error
}

// Resolve an entry
func Resolve(tx Tx, p string) (Entry, error) {
	p = Clean(p)
	e, ok, err := tx.Get(p)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, status.ErrNotFound.WrapMessage("%s", p)
	}
	return e, nil
}

func checkParent(tx Tx, p string) error {
	if p == Root {
		return status.ErrExists.WrapMessage("%s", p)
	}
	parent, err := Resolve(tx, Parent(p))
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return status.ErrNotDir.WrapMessage("%s", parent.Path)
	}
	return nil
}

func create(tx Tx, p string, mode os.FileMode, now time.Time) (Entry, error) {
	p = Clean(p)
	if err := checkParent(tx, p); err != nil {
		return Entry{}, err
	}
	_, exists, err := tx.Get(p)
	if err != nil {
		return Entry{}, err
	}
	if exists {
		return Entry{}, status.ErrExists.WrapMessage("%s", p)
	}
	e := Entry{Path: p, Mode: mode, Mtime: now.Unix()}
	return e, tx.Put(e)
}

// Create a regular file entry
func Create(tx Tx, p string, mode os.FileMode, now time.Time) (Entry, error) {
	return create(tx, p, mode.Perm(), now)
}

// Mkdir creates a directory entry
func Mkdir(tx Tx, p string, mode os.FileMode, now time.Time) (Entry, error) {
	return create(tx, p, os.ModeDir|mode.Perm(), now)
}

// Apply an update to an existing entry
func Apply(tx Tx, p string, u Update) error {
	e, err := Resolve(tx, p)
	if err != nil {
		return err
	}
	if e.IsDir() && u.Mask&UpdateContent != 0 {
		return status.ErrIsDir.WrapMessage("%s", e.Path)
	}
	u.Apply(&e)
	return tx.Put(e)
}

// List the direct children of a directory
func List(tx Tx, dir string) ([]Entry, error) {
	d, err := Resolve(tx, dir)
	if err != nil {
		return nil, err
	}
	if !d.IsDir() {
		return nil, status.ErrNotDir.WrapMessage("%s", d.Path)
	}
	var children []Entry
	err = tx.Scan(d.Path, func(e Entry) bool {
		if Parent(e.Path) == d.Path {
			children = append(children, e)
		}
		return true
	})
	return children, err
}

func hasChildren(tx Tx, dir string) (bool, error) {
	found := false
	err := tx.Scan(dir, func(Entry) bool {
		found = true
		return false
	})
	return found, err
}

// Remove a file or an empty directory
func Remove(tx Tx, p string) error {
	p = Clean(p)
	if p == Root {
		return status.ErrInvalidPath.WrapMessage("cannot remove the root directory")
	}
	e, err := Resolve(tx, p)
	if err != nil {
		return err
	}
	if e.IsDir() {
		nonEmpty, err := hasChildren(tx, p)
		if err != nil {
			return err
		}
		if nonEmpty {
			return status.ErrNotEmpty.WrapMessage("%s", p)
		}
	}
	return tx.Delete(p)
}

// Rename an entry and all its descendants
func Rename(tx Tx, from, to string) error {
	from, to = Clean(from), Clean(to)
	if from == Root || to == Root {
		return status.ErrInvalidPath.WrapMessage("cannot rename the root directory")
	}
	if from == to {
		_, err := Resolve(tx, from)
		return err
	}
	if IsBelow(to, from) {
		return status.ErrInvalidPath.WrapMessage("cannot move %s below itself", from)
	}

	src, err := Resolve(tx, from)
	if err != nil {
		return err
	}
	if err = checkParent(tx, to); err != nil {
		return err
	}

	dst, exists, err := tx.Get(to)
	if err != nil {
		return err
	}
	if exists {
		switch {
		case dst.IsDir() && !src.IsDir():
			return status.ErrIsDir.WrapMessage("%s", to)
		case !dst.IsDir() && src.IsDir():
			return status.ErrNotDir.WrapMessage("%s", to)
		case dst.IsDir():
			nonEmpty, err := hasChildren(tx, to)
			if err != nil {
				return err
			}
			if nonEmpty {
				return status.ErrNotEmpty.WrapMessage("%s", to)
			}
		}
		if err = tx.Delete(to); err != nil {
			return err
		}
	}

	var descendants []Entry
	if src.IsDir() {
		if err = tx.Scan(from, func(e Entry) bool {
			descendants = append(descendants, e)
			return true
		}); err != nil {
			return err
		}
	}

	for _, e := range append(descendants, src) {
		if err = tx.Delete(e.Path); err != nil {
			return err
		}
		e.Path = to + strings.TrimPrefix(e.Path, from)
		if err = tx.Put(e); err != nil {
			return err
		}
	}
	return nil
}
