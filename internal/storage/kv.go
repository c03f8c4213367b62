// Package storage persists configurations and templates in a small key/value
// store. Backends: a directory of files, process memory, or Redis.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned when a write would exceed the backend's size limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Well-known keys.
const (
	ConfigKey    = "certificate-generator-config"
	TemplatesKey = "certificate-generator-templates"
)

// KV is a string keyed byte store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	Dir    string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

// Open builds the backend named by opts.Driver. The returned close function
// releases backend resources and is never nil.
func Open(ctx context.Context, opts Options) (KV, func() error, error) {
	noop := func() error { return nil }
	switch opts.Driver {
	case "", DriverFile:
		kv, err := NewFileKV(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case DriverMemory:
		return NewMemoryKV(0), noop, nil
	case DriverRedis:
		kv, err := NewRedisKV(ctx, opts.RedisHost, opts.RedisPort, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
