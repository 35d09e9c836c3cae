// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// This package supports the following backends:
//   - local file system
//   - S3 (AWS)
//   - GCS (Google)
//
// All backends write through a staging area: an object becomes visible under its
// key only when committed.
package storage
