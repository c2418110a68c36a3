// Package store persists the dashboard's documents in a local key-value store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Document keys. They match the keys the dashboard has always used so an
// exported browser profile can be imported as-is.
const (
	KeyTasks   = "todoApp.tasks"
	KeyWeights = "todoApp.weightEntries"
	KeyStreak  = "todoApp.streakInfo"
	KeyTheme   = "todoApp.theme"
)

// Backend names accepted by Open
const (
	BackendSQLite3 = "sqlite3" // cgo driver (mattn/go-sqlite3)
	BackendSQLite  = "sqlite"  // pure Go driver (modernc.org/sqlite)
	BackendFile    = "file"
	BackendMemory  = "memory"
)

var ErrNotFound = errors.New("key not found")

// KV is a durable key-value store of opaque documents
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Options selects and locates a backend
type Options struct {
	Backend string
	// Path is the database file for SQLite backends and the directory for the file backend
	Path string
}

// Open opens the backend named in opts
func Open(opts Options) (KV, error) {
	backend := strings.ToLower(opts.Backend)
	switch backend {
	case BackendSQLite3, BackendSQLite, "":
		driver := backend
		if driver == "" {
			driver = BackendSQLite
		}
		if opts.Path == "" {
			return nil, fmt.Errorf("%s backend needs a database path", driver)
		}
		return OpenSQLite(driver, opts.Path)
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file backend needs a directory")
		}
		return OpenFile(opts.Path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite3, sqlite, file or memory)", opts.Backend)
	}
}

// DefaultPath returns where a backend keeps its data under statePath
func DefaultPath(backend, statePath string) string {
	switch strings.ToLower(backend) {
	case BackendFile:
		return filepath.Join(statePath, "documents")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(statePath, "daybook.db")
	}
}

// GetJSON decodes the document at key into v. It returns ErrNotFound (wrapped)
// when the key is absent and the decode error when the document is corrupt.
func GetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it at key
func PutJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return kv.Put(ctx, key, data)
}

func validKey(key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
