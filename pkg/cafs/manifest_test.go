package cafs

import (
	"testing"

	"github.com/oneconcern/casfs/pkg/cafs/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestEncode(t *testing.T) {
	m := Manifest{
		{Hash: SumKey([]byte("0123456789")).String(), Bytes: 10},
		{Hash: SumKey([]byte("abcdefg")).String(), Bytes: 7},
	}
	assert.Equal(t, int64(17), m.Size())

	data, err := m.Encode()
	require.NoError(t, err)
	expected := `[
  {
    "hash": "781e5e245d69b566979b86e28d23f2c7",
    "bytes": 10
  },
  {
    "hash": "7ac66c0f148de9519b8bd264312c4d64",
    "bytes": 7
  }
]`
	assert.Equal(t, expected, string(data))

	decoded, err := DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestDecodeManifestErrors(t *testing.T) {
	for _, bad := range []string{
		`not json`,
		`[{"hash": "nothex", "bytes": 1}]`,
		`[{"hash": "781e5e245d69b566979b86e28d23f2c7", "bytes": -1}]`,
	} {
		_, err := DecodeManifest([]byte(bad))
		assert.ErrorIs(t, err, status.ErrBadManifest, "expected %s to be rejected", bad)
	}
}
