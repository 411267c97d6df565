// Package cache stores derived artifacts keyed by a content fingerprint.
//
// Analysis results are keyed by the fingerprint of the digest text alone.
// Audio is keyed by the fingerprint plus a "<voice>_<language>"
// discriminator so each voice and language combination is cached separately.
// Entries are never evicted.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	analysisPrefix = "analysis:"
	audioPrefix    = "audio:"

	// DefaultLanguage is used when a discriminator is built without a language.
	DefaultLanguage = "en"
)

// KV is the durable store the cache writes through to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Count(ctx context.Context, prefix string) (int, error)
}

// Cache is a content-hash cache over a KV store.
type Cache struct {
	kv KV
}

// New returns a cache backed by kv.
func New(kv KV) *Cache {
	return &Cache{kv: kv}
}

// Hash returns the lowercase hex SHA-256 of text's UTF-8 bytes.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// AudioDiscriminator builds the audio cache discriminator for a voice and language.
func AudioDiscriminator(voice, language string) string {
	if language == "" {
		language = DefaultLanguage
	}
	return voice + "_" + language
}

// GetAnalysis decodes the analysis stored under fingerprint into dst.
func (c *Cache) GetAnalysis(ctx context.Context, fingerprint string, dst any) (bool, error) {
	data, ok, err := c.kv.Get(ctx, analysisPrefix+fingerprint)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached analysis %s: %w", fingerprint, err)
	}
	return true, nil
}

// SetAnalysis stores result under fingerprint, replacing any previous entry.
func (c *Cache) SetAnalysis(ctx context.Context, fingerprint string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return c.kv.Set(ctx, analysisPrefix+fingerprint, data)
}

// GetAudio returns the audio stored under fingerprint and discriminator.
func (c *Cache) GetAudio(ctx context.Context, fingerprint, discriminator string) ([]byte, bool, error) {
	data, ok, err := c.kv.Get(ctx, audioKey(fingerprint, discriminator))
	if err != nil || !ok {
		return nil, false, err
	}
	return data, true, nil
}

// SetAudio stores audio under fingerprint and discriminator.
func (c *Cache) SetAudio(ctx context.Context, fingerprint, discriminator string, data []byte) error {
	return c.kv.Set(ctx, audioKey(fingerprint, discriminator), data)
}

// Stats reports how many entries of each kind are cached.
func (c *Cache) Stats(ctx context.Context) (analyses, clips int, err error) {
	if analyses, err = c.kv.Count(ctx, analysisPrefix); err != nil {
		return 0, 0, err
	}
	if clips, err = c.kv.Count(ctx, audioPrefix); err != nil {
		return 0, 0, err
	}
	return analyses, clips, nil
}

func audioKey(fingerprint, discriminator string) string {
	return audioPrefix + fingerprint + ":" + discriminator
}
