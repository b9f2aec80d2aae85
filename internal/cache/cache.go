package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for in-run caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ProbeKey generates a cache key for a website probe result
func ProbeKey(url string) string {
	return key("probe", url)
}

// LeadKey generates a cache key for a lead-by-email lookup
func LeadKey(email string) string {
	return key("lead", email)
}

func key(kind, raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return "leads:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}
