package gcs

import (
	"context"
	"fmt"
	"io"
	"testing"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func TestErrorMapping(t *testing.T) {
	for _, toPin := range []struct {
		err      error
		expected error
	}{
		{err: gcsStorage.ErrObjectNotExist, expected: status.ErrNotExists},
		{err: fmt.Errorf("reading: %w", gcsStorage.ErrObjectNotExist), expected: status.ErrNotExists},
		{err: &googleapi.Error{Code: 404}, expected: status.ErrNotFound},
		{err: &googleapi.Error{Code: 403}, expected: status.ErrForbidden},
		{err: &googleapi.Error{Code: 401}, expected: status.ErrUnauthorized},
		{err: &googleapi.Error{Code: 400, Body: "bucket is not valid"}, expected: status.ErrInvalidResource},
		{err: &googleapi.Error{Code: 400}, expected: status.ErrStorageAPI},
		{err: &googleapi.Error{Code: 503}, expected: status.ErrStorageAPI},
	} {
		fixture := toPin
		t.Run(fixture.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, toSentinelErrors(fixture.err), fixture.expected)
		})
	}

	assert.NoError(t, toSentinelErrors(nil))
	assert.Equal(t, io.EOF, toSentinelErrors(io.EOF))
	assert.True(t, storage.IsNotExist(toSentinelErrors(gcsStorage.ErrObjectNotExist)))
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), "")
	require.ErrorIs(t, err, status.ErrInvalidResource)

	bs, err := New(context.Background(), "casfs-test", ClientOptions(option.WithoutAuthentication()))
	require.NoError(t, err)
	assert.Equal(t, "gcs://casfs-test", bs.String())
}
