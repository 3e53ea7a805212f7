package fsx

import (
	"context"
	"errors"
)

// ErrNotFound is returned (possibly wrapped) when a path does not exist.
var ErrNotFound = errors.New("fsx: file not found")

// FileInfo describes a directory entry.
type FileInfo struct {
	Name  string // Base name of the entry
	IsDir bool
}

// FileReader provides read-only operations. Template sets are only ever
// read at request time.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// List returns the direct children of path in the backend's
	// enumeration order.
	List(ctx context.Context, path string) ([]FileInfo, error)
}
