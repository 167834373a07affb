// Package cache provides the key/value stores used to memoize pipeline runs,
// filings and summaries. Keys are built from a fingerprint of the inputs plus
// a time bucket, so entries also expire by TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Store is a byte-oriented cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Fingerprint hashes the parts into a stable, namespaced key.
func Fingerprint(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

// TimeBucket returns the index of the ttl-sized window containing now.
// A non-positive ttl yields a constant bucket.
func TimeBucket(now time.Time, ttl time.Duration) string {
	if ttl <= 0 {
		return "0"
	}
	return strconv.FormatInt(now.UnixNano()/int64(ttl), 10)
}

// Key combines a fingerprint with the current time bucket.
func Key(namespace string, now time.Time, ttl time.Duration, parts ...string) string {
	return Fingerprint(namespace, append([]string{TimeBucket(now, ttl)}, parts...)...)
}

// GetJSON decodes a cached value into out. It reports false on a miss.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", shortKey(key), err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", shortKey(key), err)
	}
	return s.Set(ctx, key, data, ttl)
}

func shortKey(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
