package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Get when nothing is stored at the path
	ErrNotFound = errors.New("object not found")

	// ErrInvalidPath is returned for paths that would escape the storage root
	ErrInvalidPath = errors.New("invalid storage path")
)

// Adapter defines the interface for storage backends holding uploaded
// source documents until their text has been extracted
type Adapter interface {
	// Put stores data at the given path
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes data at the given path; deleting a missing path is not an error
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}
