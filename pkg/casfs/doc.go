// Package casfs is the file system core: it keeps the table of open file handles,
// and binds paths resolved by an inode store to content held by a content-addressable store.
//
// A file is either opened for reading or for writing, never both. Writes are sequential.
// The content written through a handle becomes visible under its path when the handle is released.
package casfs
