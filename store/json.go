package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ReadJSON decodes the value stored at key into out. It reports found=false for
// absent keys and for values that fail to decode; malformed data is logged and
// otherwise treated as missing. Only store failures are returned as errors.
func ReadJSON(ctx context.Context, s Store, key string, out interface{}, log *zap.Logger) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if raw == "" || raw == "undefined" || raw == "null" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		if log != nil {
			log.Warn("Ignoring malformed stored value", zap.String("key", key), zap.Error(err))
		}
		return false, nil
	}
	return true, nil
}

// WriteJSON encodes value and stores it at key.
func WriteJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// Remove deletes every key given, returning the first failure.
func Remove(ctx context.Context, s Store, keys ...string) error {
	var firstErr error
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
