package out

import (
	"time"

	"github.com/patrickmn/go-cache"

	"pdfmerge/internal/modules/assembler/domain"
	assemblerout "pdfmerge/internal/modules/assembler/port/out"
)

const (
	previewTTL     = 30 * time.Minute
	previewCleanup = 5 * time.Minute
)

type MemoryPreviewCache struct {
	cache *cache.Cache
}

func NewMemoryPreviewCache() assemblerout.PreviewCache {
	return &MemoryPreviewCache{cache: cache.New(previewTTL, previewCleanup)}
}

func (c *MemoryPreviewCache) Get(key string) (domain.Preview, bool) {
	if x, found := c.cache.Get(key); found {
		preview, ok := x.(domain.Preview)
		return preview, ok
	}
	return domain.Preview{}, false
}

func (c *MemoryPreviewCache) Set(key string, preview domain.Preview) {
	c.cache.Set(key, preview, cache.DefaultExpiration)
}
