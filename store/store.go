// Package store is the key-value layer that stands in for browser storage: a
// flat string-to-string map with JSON helpers on top.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a view of s where every key is transparently prefixed.
// An empty prefix returns s unchanged.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	if p, ok := s.(*prefixed); ok {
		return &prefixed{inner: p.inner, prefix: p.prefix + prefix}
	}
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

// ForDevice returns the view of s that holds one device's keys, the way each
// browser keeps its own local storage. An empty id returns s.
func ForDevice(s Store, deviceID string) Store {
	if deviceID == "" {
		return s
	}
	return WithPrefix(s, "device:"+deviceID+":")
}
