// Package cache provides the layered byte store and the result cache
// that guarantees at most one concurrent computation per key.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// Store defines the byte-level caching interface backing the result cache
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResultKey derives the composite cache key for an analysis. Different
// levels or focus areas on identical text cache independently.
func ResultKey(fp model.ContentFingerprint, level model.Level, focus model.Focus) string {
	h := sha256.Sum256([]byte(fp.FullHash + "|" + string(level) + "|" + string(focus)))
	return "veridict:v1:" + hex.EncodeToString(h[:])
}
