package cafs

import (
	"crypto/md5" // #nosec
	"encoding/hex"

	"github.com/oneconcern/casfs/pkg/cafs/status"
)

const (
	// KeySize for the md5 digest
	KeySize = md5.Size

	// KeySizeHex for hex representation of a key
	KeySizeHex = 2 * KeySize

	manifestSuffix = ".manifest"
)

// EmptyKey is the key of empty content. It is never stored.
var EmptyKey = SumKey(nil)

// Key type for CAFS keys
type Key [KeySize]byte

// NewKey creates a new key from a raw digest
func NewKey(data []byte) (Key, error) {
	var k Key
	if len(data) != KeySize {
		return k, status.ErrBadKey.WrapMessage("%x has invalid size of %d, expected %d", data, len(data), KeySize)
	}
	copy(k[:], data)
	return k, nil
}

// MustNewKey creates a new key from data but panics if there is an error
func MustNewKey(data []byte) Key {
	k, e := NewKey(data)
	if e != nil {
		panic(e.Error())
	}
	return k
}

// KeyFromString parses the hex representation of a key
func KeyFromString(s string) (Key, error) {
	if len(s) != KeySizeHex {
		return Key{}, status.ErrBadKey.WrapMessage("%q has invalid length %d, expected %d", s, len(s), KeySizeHex)
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, status.ErrBadKey.Wrap(err)
	}
	return NewKey(data)
}

// MustKeyFromString parses a key but panics if there is an error
func MustKeyFromString(s string) Key {
	k, e := KeyFromString(s)
	if e != nil {
		panic(e.Error())
	}
	return k
}

// SumKey computes the key of some content
func SumKey(data []byte) Key {
	return md5.Sum(data) // #nosec
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// BlockPath locates the block of content with this key, relative to the storage root.
//
// Blocks are sharded by the first 3 hex digits of the key: "ab/c/abc...".
func BlockPath(k Key) string {
	h := k.String()
	return h[0:2] + "/" + h[2:3] + "/" + h
}

// ManifestPath locates the manifest of content with this key, relative to the storage root
func ManifestPath(k Key) string {
	return BlockPath(k) + manifestSuffix
}
