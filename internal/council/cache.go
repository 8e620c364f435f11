package council

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"trainpilot/internal/types"
)

const cacheSize = 64

// resultCache memoizes completed analyses per config signature, so repeated
// runs of an unchanged config cost zero gateway calls.
type resultCache struct {
	lru *lru.Cache[string, types.Analysis]
}

func newResultCache() *resultCache {
	c, err := lru.New[string, types.Analysis](cacheSize)
	if err != nil {
		panic(err) // only on non-positive size
	}
	return &resultCache{lru: c}
}

func (c *resultCache) get(cfg types.TrainingConfig) (*types.Analysis, bool) {
	a, ok := c.lru.Get(configSignature(cfg))
	if !ok {
		return nil, false
	}
	return &a, true
}

func (c *resultCache) put(cfg types.TrainingConfig, a types.Analysis) {
	c.lru.Add(configSignature(cfg), a)
}

// configSignature hashes the canonical JSON form of a config. Two configs
// with identical fields share a signature regardless of how they were built.
func configSignature(cfg types.TrainingConfig) string {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
