package cafs

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/casfs/pkg/cafs/status"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Part describes one block of content split across several blocks
type Part struct {
	Hash  string `json:"hash"`
	Bytes int64  `json:"bytes"`
}

// Key of the part
func (p Part) Key() (Key, error) {
	return KeyFromString(p.Hash)
}

// Manifest lists the parts of some content, in order
type Manifest []Part

// Size of the content described by the manifest
func (m Manifest) Size() int64 {
	var size int64
	for _, part := range m {
		size += part.Bytes
	}
	return size
}

// Encode the manifest as an indented JSON document
func (m Manifest) Encode() ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}
	return json.MarshalIndent(m, "", "  ")
}

// DecodeManifest parses and validates a manifest document
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.ErrBadManifest.Wrap(err)
	}
	for i, part := range m {
		if _, err := part.Key(); err != nil {
			return nil, status.ErrBadManifest.Wrap(err)
		}
		if part.Bytes < 0 {
			return nil, status.ErrBadManifest.WrapMessage("part %d has negative size %d", i, part.Bytes)
		}
	}
	return m, nil
}
