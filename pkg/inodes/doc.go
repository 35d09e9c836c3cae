// Package inodes maps file system paths to content keys.
//
// An inode store holds one entry per path: directories, and files with the key, size and
// modification time of their content. The content itself lives in content-addressed storage.
package inodes
