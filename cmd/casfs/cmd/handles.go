package cmd

import (
	"context"
	"io"

	"github.com/oneconcern/casfs/pkg/casfs"
)

// handleWriter writes sequentially to a casfs handle
type handleWriter struct {
	ctx  context.Context
	core *casfs.Core
	id   casfs.HandleID
	off  int64
}

func (w *handleWriter) Write(p []byte) (int, error) {
	n, err := w.core.Write(w.ctx, w.id, p, w.off)
	w.off += int64(n)
	return n, err
}

// handleReader reads sequentially from a casfs handle
type handleReader struct {
	ctx  context.Context
	core *casfs.Core
	id   casfs.HandleID
	off  int64
}

func (r *handleReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.core.Read(r.ctx, r.id, p, r.off)
	r.off += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
