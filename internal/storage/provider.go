// Package storage defines the vault file-system abstraction.
package storage

import "io/fs"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use forward slashes.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Stat returns file metadata for path.
	Stat(path string) (fs.FileInfo, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Walk traverses the vault depth-first, calling fn with the
	// vault-relative path of every entry below the root. fn may return
	// fs.SkipDir to prune a directory or fs.SkipAll to stop early.
	Walk(fn fs.WalkDirFunc) error
}
